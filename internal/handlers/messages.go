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

type SendMessageRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Recipient string `json:"recipient"`
}

type UpdateMessageRequest struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

func messageMap(m models.Message, sender, recipient *models.User) map[string]interface{} {
	out := map[string]interface{}{
		"id":         m.ID.Hex(),
		"title":      m.Title,
		"body":       m.Body,
		"created_at": m.CreatedAt,
		"updated_at": m.UpdatedAt,
	}
	if sender != nil {
		out["sender"] = sender.Public()
	} else {
		out["sender"] = map[string]interface{}{"id": m.Sender.Hex()}
	}
	if recipient != nil {
		out["recipient"] = recipient.Public()
	} else {
		out["recipient"] = map[string]interface{}{"id": m.Recipient.Hex()}
	}
	return out
}

// SendMessage delivers a direct message from the authenticated member to
// another member.
func SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.Body == "" || req.Recipient == "" {
		respondError(w, http.StatusBadRequest, "Title, body and recipient are required")
		return
	}

	recipientID, err := primitive.ObjectIDFromHex(req.Recipient)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid recipient")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	recipient, err := services.GetUserByID(ctx, recipientID)
	if err != nil {
		log.Printf("messages: recipient lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if recipient == nil {
		respondError(w, http.StatusNotFound, "Recipient not found")
		return
	}

	now := time.Now()
	msg := models.Message{
		ID:        primitive.NewObjectID(),
		CreatedAt: now,
		UpdatedAt: now,
		Title:     req.Title,
		Body:      req.Body,
		Sender:    userID,
		Recipient: recipientID,
	}

	if _, err := database.DB.Collection("messages").InsertOne(ctx, msg); err != nil {
		log.Printf("messages: insert failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	sender, err := services.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("messages: sender lookup failed: %v", err)
	}

	respondJSON(w, http.StatusCreated, messageMap(msg, sender, recipient))
}

// GetInbox lists messages sent to the authenticated member, newest first.
func GetInbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	listMessages(w, r, bson.M{"recipient": userID})
}

// GetSent lists messages the authenticated member has sent, newest first.
func GetSent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	listMessages(w, r, bson.M{"sender": userID})
}

func listMessages(w http.ResponseWriter, r *http.Request, filter bson.M) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := database.DB.Collection("messages").Find(ctx, filter, findOptions)
	if err != nil {
		log.Printf("messages: query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		log.Printf("messages: decode failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	userIDs := make([]primitive.ObjectID, 0, len(messages)*2)
	for _, m := range messages {
		userIDs = append(userIDs, m.Sender, m.Recipient)
	}
	users, err := services.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		log.Printf("messages: user lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	result := make([]map[string]interface{}, 0, len(messages))
	for _, m := range messages {
		var sender, recipient *models.User
		if u, ok := users[m.Sender]; ok {
			sender = &u
		}
		if u, ok := users[m.Recipient]; ok {
			recipient = &u
		}
		result = append(result, messageMap(m, sender, recipient))
	}

	respondJSON(w, http.StatusOK, result)
}

// UpdateMessage edits a message; only its sender may do so.
func UpdateMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	msgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Message not found")
		return
	}

	var req UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var msg models.Message
	err = database.DB.Collection("messages").FindOne(ctx, bson.M{"_id": msgID}).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Message not found")
		return
	}
	if err != nil {
		log.Printf("messages: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if msg.Sender != userID {
		respondError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	if req.Title != "" {
		msg.Title = req.Title
	}
	if req.Body != "" {
		msg.Body = req.Body
	}
	msg.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"title":      msg.Title,
		"body":       msg.Body,
		"updated_at": msg.UpdatedAt,
	}}
	if _, err := database.DB.Collection("messages").UpdateOne(ctx, bson.M{"_id": msgID}, update); err != nil {
		log.Printf("messages: update failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	users, err := services.GetUsersByIDs(ctx, []primitive.ObjectID{msg.Sender, msg.Recipient})
	if err != nil {
		log.Printf("messages: user lookup failed: %v", err)
	}
	var sender, recipient *models.User
	if u, ok := users[msg.Sender]; ok {
		sender = &u
	}
	if u, ok := users[msg.Recipient]; ok {
		recipient = &u
	}

	respondJSON(w, http.StatusOK, messageMap(msg, sender, recipient))
}

// DeleteMessage removes a message; only its sender may do so.
func DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	msgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Message not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var msg models.Message
	err = database.DB.Collection("messages").FindOne(ctx, bson.M{"_id": msgID}).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Message not found")
		return
	}
	if err != nil {
		log.Printf("messages: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if msg.Sender != userID {
		respondError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	if _, err := database.DB.Collection("messages").DeleteOne(ctx, bson.M{"_id": msgID}); err != nil {
		log.Printf("messages: delete failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondMessage(w, http.StatusOK, "Message deleted successfully")
}
