package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/config"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/database"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/services"
	"github.com/MULLAZMUSH/victors-assembly-church/pkg/utils"
)

// stubTokenStore satisfies services.TokenStore without a database; it records
// which users had their tokens revoked.
type stubTokenStore struct {
	revokedUsers []primitive.ObjectID
}

func (s *stubTokenStore) Record(ctx context.Context, token string, userID primitive.ObjectID, kind string, expiresAt time.Time) error {
	return nil
}

func (s *stubTokenStore) Exists(ctx context.Context, token, kind string) (bool, error) {
	return true, nil
}

func (s *stubTokenStore) Delete(ctx context.Context, token string) error {
	return nil
}

func (s *stubTokenStore) DeleteForUser(ctx context.Context, userID primitive.ObjectID) error {
	s.revokedUsers = append(s.revokedUsers, userID)
	return nil
}

func initAuthHandlers(t testing.TB) *stubTokenStore {
	t.Helper()
	store := &stubTokenStore{}
	cfg := &config.Config{FrontendURL: "http://localhost:5173"}
	Init(cfg, services.NewTokenService("access-secret-for-tests", "refresh-secret-for-tests"), store)
	return store
}

func userDoc(id primitive.ObjectID, email, passwordHash string, verified bool) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Grace"},
		{Key: "emails", Value: bson.A{email}},
		{Key: "password", Value: passwordHash},
		{Key: "verified", Value: verified},
	}
}

func TestLoginUnverifiedUserForbidden(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("correct password, unverified email", func(mt *mtest.T) {
		initAuthHandlers(mt)
		database.DB = mt.DB
		defer func() { database.DB = nil }()

		hash, err := utils.HashPassword("secret-pass")
		require.NoError(mt, err)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, mt.DB.Name()+".users", mtest.FirstBatch,
			userDoc(primitive.NewObjectID(), "grace@example.com", hash, false)))

		body, err := json.Marshal(LoginRequest{Email: "grace@example.com", Password: "secret-pass"})
		require.NoError(mt, err)
		rec := httptest.NewRecorder()
		Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body)))

		assert.Equal(mt, http.StatusForbidden, rec.Code)
		assert.Contains(mt, rec.Body.String(), "verify your email")
	})

	mt.Run("wrong password answers 401, not 403", func(mt *mtest.T) {
		initAuthHandlers(mt)
		database.DB = mt.DB
		defer func() { database.DB = nil }()

		hash, err := utils.HashPassword("secret-pass")
		require.NoError(mt, err)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, mt.DB.Name()+".users", mtest.FirstBatch,
			userDoc(primitive.NewObjectID(), "grace@example.com", hash, false)))

		body, err := json.Marshal(LoginRequest{Email: "grace@example.com", Password: "wrong-pass"})
		require.NoError(mt, err)
		rec := httptest.NewRecorder()
		Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body)))

		assert.Equal(mt, http.StatusUnauthorized, rec.Code)
		assert.Contains(mt, rec.Body.String(), "Invalid credentials")
	})
}

func TestRegisterDuplicateEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("existing address rejected, lookup normalized to lowercase", func(mt *mtest.T) {
		initAuthHandlers(mt)
		database.DB = mt.DB
		defer func() { database.DB = nil }()

		mt.AddMockResponses(mtest.CreateCursorResponse(1, mt.DB.Name()+".users", mtest.FirstBatch,
			userDoc(primitive.NewObjectID(), "alice@example.com", "irrelevant", true)))

		body, err := json.Marshal(RegisterRequest{
			Name:     "Alice",
			Emails:   []string{"ALICE@Example.COM"},
			Password: "secret-pass",
		})
		require.NoError(mt, err)
		rec := httptest.NewRecorder()
		Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body)))

		assert.Equal(mt, http.StatusBadRequest, rec.Code)
		assert.Contains(mt, rec.Body.String(), "already in use")

		// The existence check must use the normalized address.
		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		assert.Contains(mt, evt.Command.String(), "alice@example.com")
		assert.NotContains(mt, evt.Command.String(), "ALICE@Example.COM")
	})

	mt.Run("insert race caught by the unique index", func(mt *mtest.T) {
		initAuthHandlers(mt)
		database.DB = mt.DB
		defer func() { database.DB = nil }()

		// Lookup sees nothing, then a concurrent registration wins the insert.
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error",
			}),
		)

		body, err := json.Marshal(RegisterRequest{
			Name:     "Alice",
			Emails:   []string{"alice@example.com"},
			Password: "secret-pass",
		})
		require.NoError(mt, err)
		rec := httptest.NewRecorder()
		Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body)))

		assert.Equal(mt, http.StatusBadRequest, rec.Code)
		assert.Contains(mt, rec.Body.String(), "already in use")
	})
}

func TestResetPasswordTokenSingleUse(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("replay after consumption fails", func(mt *mtest.T) {
		store := initAuthHandlers(mt)
		database.DB = mt.DB
		defer func() { database.DB = nil }()

		userID := primitive.NewObjectID()

		// First consumption swaps the password and returns the user row;
		// the conditional update matches nothing on replay.
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: userDoc(userID, "grace@example.com", "old-hash", true)}},
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
		)

		resetWith := func(token string) *httptest.ResponseRecorder {
			body, err := json.Marshal(ResetPasswordRequest{Password: "brand-new-pass"})
			require.NoError(mt, err)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password/"+token, bytes.NewReader(body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("token", token)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()
			ResetPassword(rec, req)
			return rec
		}

		first := resetWith("one-time-reset-token")
		assert.Equal(mt, http.StatusOK, first.Code)
		assert.Contains(mt, first.Body.String(), "Password reset successful")

		// Old sessions die with the old password.
		require.Len(mt, store.revokedUsers, 1)
		assert.Equal(mt, userID, store.revokedUsers[0])

		second := resetWith("one-time-reset-token")
		assert.Equal(mt, http.StatusBadRequest, second.Code)
		assert.Contains(mt, second.Body.String(), "Invalid or expired token")
		assert.Len(mt, store.revokedUsers, 1)
	})
}
