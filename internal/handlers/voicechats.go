package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/database"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/middleware"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/models"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/services"
)

type CreateVoiceChatRequest struct {
	User2    string `json:"user_2"`
	Duration int64  `json:"duration"`
}

func voiceChatMap(v models.VoiceChat, user1, user2 *models.User) map[string]interface{} {
	out := map[string]interface{}{
		"id":        v.ID.Hex(),
		"timestamp": v.Timestamp,
		"duration":  v.Duration,
	}
	if user1 != nil {
		out["user_1"] = user1.Public()
	} else {
		out["user_1"] = map[string]interface{}{"id": v.User1.Hex()}
	}
	if user2 != nil {
		out["user_2"] = user2.Public()
	} else {
		out["user_2"] = map[string]interface{}{"id": v.User2.Hex()}
	}
	return out
}

// CreateVoiceChat records a completed voice call between the authenticated
// member and another member.
func CreateVoiceChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateVoiceChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.User2 == "" {
		respondError(w, http.StatusBadRequest, "user_2 is required")
		return
	}
	if req.Duration < 0 {
		respondError(w, http.StatusBadRequest, "Duration must not be negative")
		return
	}

	user2ID, err := primitive.ObjectIDFromHex(req.User2)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user_2")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	other, err := services.GetUserByID(ctx, user2ID)
	if err != nil {
		log.Printf("voicechats: user lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if other == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	now := time.Now()
	vc := models.VoiceChat{
		ID:        primitive.NewObjectID(),
		CreatedAt: now,
		UpdatedAt: now,
		User1:     userID,
		User2:     user2ID,
		Timestamp: now,
		Duration:  req.Duration,
	}

	if _, err := database.DB.Collection("voice_chats").InsertOne(ctx, vc); err != nil {
		log.Printf("voicechats: insert failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	caller, err := services.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("voicechats: user lookup failed: %v", err)
	}

	respondJSON(w, http.StatusCreated, voiceChatMap(vc, caller, other))
}

// GetMyVoiceChats lists the authenticated member's call history on either
// side of the call, newest first.
func GetMyVoiceChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{"$or": []bson.M{
		{"user_1": userID},
		{"user_2": userID},
	}}
	findOptions := options.Find().SetSort(bson.M{"timestamp": -1})
	cursor, err := database.DB.Collection("voice_chats").Find(ctx, filter, findOptions)
	if err != nil {
		log.Printf("voicechats: query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	defer cursor.Close(ctx)

	var chats []models.VoiceChat
	if err := cursor.All(ctx, &chats); err != nil {
		log.Printf("voicechats: decode failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	userIDs := make([]primitive.ObjectID, 0, len(chats)*2)
	for _, c := range chats {
		userIDs = append(userIDs, c.User1, c.User2)
	}
	users, err := services.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		log.Printf("voicechats: user lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	result := make([]map[string]interface{}, 0, len(chats))
	for _, c := range chats {
		var u1, u2 *models.User
		if u, ok := users[c.User1]; ok {
			u1 = &u
		}
		if u, ok := users[c.User2]; ok {
			u2 = &u
		}
		result = append(result, voiceChatMap(c, u1, u2))
	}

	respondJSON(w, http.StatusOK, result)
}
