package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/database"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/middleware"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/models"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/services"
	"github.com/MULLAZMUSH/victors-assembly-church/pkg/utils"
)

type RegisterRequest struct {
	Name     string   `json:"name"`
	Emails   []string `json:"emails"`
	Password string   `json:"password"`
	Picture  string   `json:"picture,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries both tokens plus the member's public fields.
type LoginResponse struct {
	AccessToken  string                 `json:"accessToken"`
	RefreshToken string                 `json:"refreshToken"`
	User         map[string]interface{} `json:"user"`
}

// Register creates an unverified member account. The verification link is
// delivered out-of-band (currently: server log), never in the response.
func Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.Password == "" || len(req.Emails) == 0 {
		respondError(w, http.StatusBadRequest, "Name, emails, and password are required")
		return
	}
	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	emails := utils.NormalizeEmails(req.Emails)
	if len(emails) == 0 {
		respondError(w, http.StatusBadRequest, "At least one email is required")
		return
	}
	for _, email := range emails {
		if err := utils.ValidateEmail(email); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	existing, err := services.FindUserByAnyEmail(ctx, emails)
	if err != nil {
		log.Printf("register: email lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if existing != nil {
		respondError(w, http.StatusBadRequest, "One of the emails is already in use")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("register: password hashing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		CreatedAt: now,
		UpdatedAt: now,
		Name:      req.Name,
		Emails:    emails,
		Password:  hashedPassword,
		Picture:   req.Picture,
		Verified:  false,
	}

	if _, err := database.DB.Collection("users").InsertOne(ctx, user); err != nil {
		// The unique index closes the check-then-insert race.
		if mongo.IsDuplicateKeyError(err) {
			respondError(w, http.StatusBadRequest, "One of the emails is already in use")
			return
		}
		log.Printf("register: insert failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	verifyToken, _, err := tokenService.IssueVerification(user.ID.Hex())
	if err != nil {
		log.Printf("register: failed to issue verification token: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	// Out-of-band delivery: the link goes to the server log, not the client.
	log.Printf("✅ Verification link for %v: %s/verify/%s", emails, frontendURL, verifyToken)

	respondMessage(w, http.StatusOK, "Registration successful! Check your email for the verification link.")
}

// VerifyEmail consumes a verification token and marks the account verified.
// Idempotent: verifying an already-verified account succeeds.
func VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "Token is required")
		return
	}

	userIDHex, err := tokenService.VerifyVerification(token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}
	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := services.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("verify: user lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if user.Verified {
		respondMessage(w, http.StatusOK, "Email already verified.")
		return
	}

	_, err = database.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"verified": true, "updated_at": time.Now()}},
	)
	if err != nil {
		log.Printf("verify: update failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondMessage(w, http.StatusOK, "Email verified successfully! You can now log in.")
}

// Login checks credentials and issues the access/refresh token pair. Both
// tokens are recorded in the token store before the response is written, so
// a token the client holds is always revocable.
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := services.FindUserByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		log.Printf("login: user lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if user == nil || !utils.VerifyPassword(req.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.Verified {
		respondError(w, http.StatusForbidden, "Please verify your email first")
		return
	}

	accessToken, accessExp, err := tokenService.IssueAccess(user.ID.Hex())
	if err != nil {
		log.Printf("login: failed to issue access token: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	refreshToken, refreshExp, err := tokenService.IssueRefresh(user.ID.Hex())
	if err != nil {
		log.Printf("login: failed to issue refresh token: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := tokenStore.Record(ctx, accessToken, user.ID, models.TokenKindAccess, accessExp); err != nil {
		log.Printf("login: failed to record access token: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if err := tokenStore.Record(ctx, refreshToken, user.ID, models.TokenKindRefresh, refreshExp); err != nil {
		log.Printf("login: failed to record refresh token: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Public(),
	})
}

// Refresh mints a new access token from a valid, still-recorded refresh
// token. The refresh token itself stays valid until its own expiry.
func Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	userIDHex, err := tokenService.VerifyRefresh(req.RefreshToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stored, err := tokenStore.Exists(ctx, req.RefreshToken, models.TokenKindRefresh)
	if err != nil {
		log.Printf("refresh: token store lookup failed: %v", err)
		respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		return
	}
	if !stored {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	accessToken, accessExp, err := tokenService.IssueAccess(userIDHex)
	if err != nil {
		log.Printf("refresh: failed to issue access token: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if err := tokenStore.Record(ctx, accessToken, userID, models.TokenKindAccess, accessExp); err != nil {
		log.Printf("refresh: failed to record access token: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

// Logout revokes the presented access token, plus the refresh token from the
// body when the client sends its own along.
func Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if token, ok := middleware.TokenFromContext(r.Context()); ok {
		if err := tokenStore.Delete(ctx, token); err != nil {
			log.Printf("logout: failed to delete access token: %v", err)
			respondError(w, http.StatusInternalServerError, "Server error")
			return
		}
	}

	// Body is optional; only a refresh token owned by the caller is revoked.
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		if ownerHex, err := tokenService.VerifyRefresh(req.RefreshToken); err == nil && ownerHex == userID.Hex() {
			if err := tokenStore.Delete(ctx, req.RefreshToken); err != nil {
				log.Printf("logout: failed to delete refresh token: %v", err)
			}
		}
	}

	respondMessage(w, http.StatusOK, "Logged out successfully")
}

// ForgotPassword starts the reset flow. The response is identical whether or
// not the address belongs to an account, so the endpoint cannot be used to
// probe for registered emails.
func ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := services.FindUserByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		log.Printf("forgot-password: user lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if user != nil {
		raw, digest, expiresAt, err := services.NewResetToken()
		if err != nil {
			log.Printf("forgot-password: token generation failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Server error")
			return
		}

		_, err = database.DB.Collection("users").UpdateOne(ctx,
			bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{
				"reset_password_token":   digest,
				"reset_password_expires": expiresAt,
				"updated_at":             time.Now(),
			}},
		)
		if err != nil {
			log.Printf("forgot-password: update failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Server error")
			return
		}

		// Raw token is disclosed exactly once, out-of-band.
		log.Printf("🔑 Password reset link for %s: %s/reset-password/%s", req.Email, frontendURL, raw)
	}

	respondMessage(w, http.StatusOK, "If an account exists with this email, you will receive a password reset link.")
}

// ResetPassword consumes a reset token. The password swap and the clearing
// of the reset fields happen in one conditional update, so the token can
// never be replayed and there is no window where both the old password and
// a live reset token coexist.
func ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "Token is required")
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "Password is required")
		return
	}
	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("reset-password: password hashing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Lookup is scoped to "digest matches AND not expired", never digest alone.
	filter := bson.M{
		"reset_password_token":   services.HashResetToken(token),
		"reset_password_expires": bson.M{"$gt": time.Now()},
	}
	update := bson.M{
		"$set":   bson.M{"password": hashedPassword, "updated_at": time.Now()},
		"$unset": bson.M{"reset_password_token": "", "reset_password_expires": ""},
	}

	var user models.User
	err = database.DB.Collection("users").FindOneAndUpdate(ctx, filter, update).Decode(&user)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}
	if err != nil {
		log.Printf("reset-password: update failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	// Sessions opened with the old password die with it.
	if err := tokenStore.DeleteForUser(ctx, user.ID); err != nil {
		log.Printf("reset-password: failed to revoke tokens for user %s: %v", user.ID.Hex(), err)
	}

	respondMessage(w, http.StatusOK, "Password reset successful")
}

// GetMe returns the authenticated member's own record.
func GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := services.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("me: user lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
