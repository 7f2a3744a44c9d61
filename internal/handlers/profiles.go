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
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/database"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/middleware"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/models"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/services"
)

type UpsertProfileRequest struct {
	Bio     string   `json:"bio"`
	Skills  []string `json:"skills"`
	Picture string   `json:"picture"`
}

func profileMap(p models.Profile, user *models.User) map[string]interface{} {
	out := map[string]interface{}{
		"id":         p.ID.Hex(),
		"bio":        p.Bio,
		"skills":     p.Skills,
		"picture":    p.Picture,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
	if user != nil {
		out["user"] = user.Public()
	} else {
		out["user"] = map[string]interface{}{"id": p.UserID.Hex()}
	}
	return out
}

// UpsertProfile creates or replaces the authenticated member's profile.
func UpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Skills == nil {
		req.Skills = []string{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"bio":        req.Bio,
			"skills":     req.Skills,
			"picture":    req.Picture,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"user_id":    userID,
			"created_at": now,
		},
	}

	var profile models.Profile
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := database.DB.Collection("profiles").
		FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).
		Decode(&profile)
	if err != nil {
		log.Printf("profiles: upsert failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	user, err := services.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("profiles: user lookup failed: %v", err)
	}

	respondJSON(w, http.StatusOK, profileMap(profile, user))
}

// GetProfile returns a member's profile by user id.
func GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var profile models.Profile
	err = database.DB.Collection("profiles").FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		log.Printf("profiles: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	user, err := services.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("profiles: user lookup failed: %v", err)
	}

	respondJSON(w, http.StatusOK, profileMap(profile, user))
}

// GetProfiles lists every member profile with user details embedded.
func GetProfiles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("profiles").Find(ctx, bson.M{})
	if err != nil {
		log.Printf("profiles: query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	defer cursor.Close(ctx)

	var profiles []models.Profile
	if err := cursor.All(ctx, &profiles); err != nil {
		log.Printf("profiles: decode failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	userIDs := make([]primitive.ObjectID, 0, len(profiles))
	for _, p := range profiles {
		userIDs = append(userIDs, p.UserID)
	}
	users, err := services.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		log.Printf("profiles: user lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	result := make([]map[string]interface{}, 0, len(profiles))
	for _, p := range profiles {
		var user *models.User
		if u, ok := users[p.UserID]; ok {
			user = &u
		}
		result = append(result, profileMap(p, user))
	}

	respondJSON(w, http.StatusOK, result)
}
