package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the only error surfaced for any token verification
// failure (bad signature, expired, wrong kind, malformed). Callers must not
// learn which condition failed.
var ErrInvalidToken = errors.New("invalid or expired token")

// Token lifetimes.
const (
	AccessTokenTTL       = 15 * time.Minute
	RefreshTokenTTL      = 7 * 24 * time.Hour
	VerificationTokenTTL = time.Hour
)

// purpose claim values; a token is only accepted for the purpose it was
// minted with, so a verification token can never act as an access token.
const (
	purposeAccess  = "access"
	purposeRefresh = "refresh"
	purposeVerify  = "verify"
)

type authClaims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid"`
	Purpose string `json:"purpose"`
}

// TokenService mints and verifies the HS256 JWTs used for authentication.
// Access and verification tokens are signed with the access secret; refresh
// tokens with a separate secret, so leaking one cannot mint the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
}

func NewTokenService(accessSecret, refreshSecret string) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// IssueAccess mints a short-lived access token for userID.
func (s *TokenService) IssueAccess(userID string) (string, time.Time, error) {
	return s.issue(userID, purposeAccess, s.accessSecret, AccessTokenTTL)
}

// IssueRefresh mints a refresh token for userID, signed with the refresh secret.
func (s *TokenService) IssueRefresh(userID string) (string, time.Time, error) {
	return s.issue(userID, purposeRefresh, s.refreshSecret, RefreshTokenTTL)
}

// IssueVerification mints a single-purpose email verification token.
func (s *TokenService) IssueVerification(userID string) (string, time.Time, error) {
	return s.issue(userID, purposeVerify, s.accessSecret, VerificationTokenTTL)
}

// VerifyAccess returns the user id carried by a valid access token.
func (s *TokenService) VerifyAccess(token string) (string, error) {
	return s.parse(token, purposeAccess, s.accessSecret)
}

// VerifyRefresh returns the user id carried by a valid refresh token.
func (s *TokenService) VerifyRefresh(token string) (string, error) {
	return s.parse(token, purposeRefresh, s.refreshSecret)
}

// VerifyVerification returns the user id carried by a valid email
// verification token.
func (s *TokenService) VerifyVerification(token string) (string, error) {
	return s.parse(token, purposeVerify, s.accessSecret)
}

func (s *TokenService) issue(userID, purpose string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:  userID,
		Purpose: purpose,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *TokenService) parse(tokenString, purpose string, secret []byte) (string, error) {
	claims := &authClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Purpose != purpose || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
