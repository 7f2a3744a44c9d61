package services

import (
	"testing"
	"time"
)

func TestNewResetToken(t *testing.T) {
	t.Parallel()

	raw, digest, expiresAt, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}

	if len(raw) != 64 {
		t.Fatalf("raw token length = %d, want 64 hex chars", len(raw))
	}
	if digest == raw {
		t.Fatal("digest must differ from the raw token")
	}
	if got := HashResetToken(raw); got != digest {
		t.Fatalf("HashResetToken(raw) = %q, want %q", got, digest)
	}

	until := time.Until(expiresAt)
	if until <= 0 || until > ResetTokenTTL+time.Minute {
		t.Fatalf("expiry %v out of range", until)
	}
}

func TestResetTokensAreUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		raw, _, _, err := NewResetToken()
		if err != nil {
			t.Fatalf("NewResetToken: %v", err)
		}
		if seen[raw] {
			t.Fatal("duplicate reset token generated")
		}
		seen[raw] = true
	}
}

func TestHashResetTokenDeterministic(t *testing.T) {
	t.Parallel()

	if HashResetToken("abc") != HashResetToken("abc") {
		t.Fatal("same input must hash to the same digest")
	}
	if HashResetToken("abc") == HashResetToken("abd") {
		t.Fatal("different inputs must not collide")
	}
}
