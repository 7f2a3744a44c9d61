package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = 15 * time.Minute

// NewResetToken produces a password reset token: 32 random bytes, hex
// encoded. The raw value is returned exactly once for out-of-band delivery;
// only the digest is ever persisted, so possession of the raw token is
// required to complete a reset. A fast hash is fine here — the token itself
// carries the entropy.
func NewResetToken() (raw, digest string, expiresAt time.Time, err error) {
	b := make([]byte, 32)
	if _, err = rand.Read(b); err != nil {
		return "", "", time.Time{}, err
	}
	raw = hex.EncodeToString(b)
	return raw, HashResetToken(raw), time.Now().Add(ResetTokenTTL), nil
}

// HashResetToken returns the SHA-256 hex digest stored on the user record.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
