package utils

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Secret123!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "Secret123!" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !VerifyPassword("Secret123!", hash) {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword("Secret123?", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	h2, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password must differ (random salt)")
	}
}

func TestVerifyPasswordFailsClosed(t *testing.T) {
	t.Parallel()

	if VerifyPassword("anything", "") {
		t.Fatal("empty stored hash must be rejected")
	}
	if VerifyPassword("anything", "not-a-bcrypt-hash") {
		t.Fatal("malformed stored hash must be rejected")
	}
}
