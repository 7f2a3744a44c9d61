package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/models"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/services"
)

// fakeTokenStore is an in-memory TokenStore for middleware tests.
type fakeTokenStore struct {
	tokens map[string]string // token -> kind
	err    error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]string)}
}

func (s *fakeTokenStore) Record(_ context.Context, token string, _ primitive.ObjectID, kind string, _ time.Time) error {
	s.tokens[token] = kind
	return nil
}

func (s *fakeTokenStore) Exists(_ context.Context, token, kind string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.tokens[token] == kind, nil
}

func (s *fakeTokenStore) Delete(_ context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

func (s *fakeTokenStore) DeleteForUser(context.Context, primitive.ObjectID) error {
	return nil
}

func newAuthHarness(t *testing.T) (*services.TokenService, *fakeTokenStore, http.Handler, *primitive.ObjectID) {
	t.Helper()

	tokens := services.NewTokenService("access-secret", "refresh-secret")
	store := newFakeTokenStore()

	var gotUserID primitive.ObjectID
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok, "user id missing from request context")
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	})

	return tokens, store, RequireAuth(tokens, store)(inner), &gotUserID
}

func issueStored(t *testing.T, tokens *services.TokenService, store *fakeTokenStore, userID primitive.ObjectID) string {
	t.Helper()
	token, expiresAt, err := tokens.IssueAccess(userID.Hex())
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), token, userID, models.TokenKindAccess, expiresAt))
	return token
}

func TestRequireAuthNoToken(t *testing.T) {
	_, _, handler, _ := newAuthHarness(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/posts/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthMalformedToken(t *testing.T) {
	_, _, handler, _ := newAuthHarness(t)

	req := httptest.NewRequest("GET", "/api/posts/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired token")
}

func TestRequireAuthValidAndStored(t *testing.T) {
	tokens, store, handler, gotUserID := newAuthHarness(t)
	userID := primitive.NewObjectID()
	token := issueStored(t, tokens, store, userID)

	req := httptest.NewRequest("GET", "/api/posts/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, *gotUserID)
}

func TestRequireAuthHeaderFallback(t *testing.T) {
	tokens, store, handler, _ := newAuthHarness(t)
	token := issueStored(t, tokens, store, primitive.NewObjectID())

	req := httptest.NewRequest("GET", "/api/posts/me", nil)
	req.Header.Set("x-auth-token", token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthValidSignatureNotInStore(t *testing.T) {
	tokens, _, handler, _ := newAuthHarness(t)

	// Signature-valid token that was never recorded (i.e. revoked or forged
	// after a store wipe) must be rejected.
	token, _, err := tokens.IssueAccess(primitive.NewObjectID().Hex())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/posts/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired token")
}

func TestRequireAuthRefreshTokenRejected(t *testing.T) {
	tokens, store, handler, _ := newAuthHarness(t)
	userID := primitive.NewObjectID()

	refresh, expiresAt, err := tokens.IssueRefresh(userID.Hex())
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), refresh, userID, models.TokenKindRefresh, expiresAt))

	req := httptest.NewRequest("GET", "/api/posts/me", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthStoreUnavailableFailsClosed(t *testing.T) {
	tokens, store, handler, _ := newAuthHarness(t)
	token := issueStored(t, tokens, store, primitive.NewObjectID())
	store.err = errors.New("connection reset")

	req := httptest.NewRequest("GET", "/api/posts/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
