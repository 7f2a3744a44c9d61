package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	return NewTokenService("access-secret-for-tests", "refresh-secret-for-tests")
}

func TestIssueAndVerifyAccess(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService()

	token, expiresAt, err := svc.IssueAccess("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), expiresAt, 5*time.Second)

	userID, err := svc.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestIssueAndVerifyRefresh(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService()

	token, expiresAt, err := svc.IssueRefresh("user-123")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(RefreshTokenTTL), expiresAt, 5*time.Second)

	userID, err := svc.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestIssueAndVerifyVerification(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService()

	token, _, err := svc.IssueVerification("user-123")
	require.NoError(t, err)

	userID, err := svc.VerifyVerification(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestTokenPurposeIsEnforced(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService()

	access, _, err := svc.IssueAccess("user-123")
	require.NoError(t, err)
	refresh, _, err := svc.IssueRefresh("user-123")
	require.NoError(t, err)
	verify, _, err := svc.IssueVerification("user-123")
	require.NoError(t, err)

	// A refresh token never authenticates a request.
	_, err = svc.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// An access token never refreshes a session.
	_, err = svc.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A verification token shares the access secret but not the purpose.
	_, err = svc.VerifyAccess(verify)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.VerifyVerification(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestWrongSecretRejected(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService()
	other := NewTokenService("some-other-access-secret", "some-other-refresh-secret")

	token, _, err := svc.IssueAccess("user-123")
	require.NoError(t, err)

	_, err = other.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService()

	// Mint an already-expired token with the same secret and claims shape.
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID:  "user-123",
		Purpose: purposeAccess,
	})
	signed, err := expired.SignedString([]byte("access-secret-for-tests"))
	require.NoError(t, err)

	_, err = svc.VerifyAccess(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMalformedTokenRejected(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService()

	for _, token := range []string{"", "garbage", "a.b.c", "Bearer something"} {
		_, err := svc.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestNoneAlgorithmRejected(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService()

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:  "user-123",
		Purpose: purposeAccess,
	})
	signed, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
