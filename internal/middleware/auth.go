package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/models"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/services"
)

type contextKey string

const (
	userIDKey contextKey = "auth.userID"
	tokenKey  contextKey = "auth.token"
)

// RequireAuth verifies the bearer access token on every protected request:
// signature and expiry first, then membership in the token store so that
// revoked tokens die even while their signature is still valid. Every client
// failure branch answers the same generic 401; nothing distinguishes
// "expired" from "revoked" from "malformed".
func RequireAuth(tokens *services.TokenService, store services.TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}

			userIDHex, err := tokens.VerifyAccess(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			userID, err := primitive.ObjectIDFromHex(userIDHex)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			stored, err := store.Exists(ctx, token, models.TokenKindAccess)
			if err != nil {
				// Store unavailable: fail closed rather than honor a token
				// we cannot check for revocation.
				log.Printf("token store lookup failed: %v", err)
				writeAuthError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
				return
			}
			if !stored {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			reqCtx := context.WithValue(r.Context(), userIDKey, userID)
			reqCtx = context.WithValue(reqCtx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(reqCtx))
		})
	}
}

// ExtractToken pulls the bearer token from the Authorization header, falling
// back to the legacy x-auth-token header.
func ExtractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		if strings.HasPrefix(header, "Bearer ") || strings.HasPrefix(header, "bearer ") {
			return strings.TrimSpace(header[len("Bearer "):])
		}
		return header
	}
	return strings.TrimSpace(r.Header.Get("x-auth-token"))
}

// UserIDFromContext returns the authenticated user's id attached by
// RequireAuth.
func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(userIDKey).(primitive.ObjectID)
	return id, ok
}

// TokenFromContext returns the raw access token the request authenticated
// with. Used by logout to revoke the presented token.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
