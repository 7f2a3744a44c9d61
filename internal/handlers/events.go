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

type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Recurring   string    `json:"recurring"`
	NotifyUsers []string  `json:"notifyUsers"`
}

type UpdateEventRequest struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Location    string     `json:"location,omitempty"`
	Recurring   string     `json:"recurring,omitempty"`
	NotifyUsers []string   `json:"notifyUsers,omitempty"`
}

func parseUserIDs(hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func eventMap(e models.Event, creator *models.User) map[string]interface{} {
	attendees := make([]string, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		attendees = append(attendees, a.Hex())
	}
	notify := make([]string, 0, len(e.NotifyUsers))
	for _, n := range e.NotifyUsers {
		notify = append(notify, n.Hex())
	}
	out := map[string]interface{}{
		"id":          e.ID.Hex(),
		"title":       e.Title,
		"description": e.Description,
		"date":        e.Date,
		"location":    e.Location,
		"recurring":   e.Recurring,
		"attendees":   attendees,
		"notifyUsers": notify,
		"created_at":  e.CreatedAt,
		"updated_at":  e.UpdatedAt,
	}
	if creator != nil {
		out["createdBy"] = creator.Public()
	} else {
		out["createdBy"] = map[string]interface{}{"id": e.CreatedBy.Hex()}
	}
	return out
}

// CreateEvent schedules a community event.
func CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.Date.IsZero() {
		respondError(w, http.StatusBadRequest, "Title and date are required")
		return
	}
	if req.Recurring == "" {
		req.Recurring = models.RecurringNone
	}
	if !models.ValidRecurring(req.Recurring) {
		respondError(w, http.StatusBadRequest, "Invalid recurring value")
		return
	}
	if req.Location == "" {
		req.Location = "Online / TBD"
	}

	notifyUsers, err := parseUserIDs(req.NotifyUsers)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid notifyUsers value")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := time.Now()
	event := models.Event{
		ID:          primitive.NewObjectID(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		Recurring:   req.Recurring,
		Attendees:   []primitive.ObjectID{},
		CreatedBy:   userID,
		NotifyUsers: notifyUsers,
	}

	if _, err := database.DB.Collection("events").InsertOne(ctx, event); err != nil {
		log.Printf("events: insert failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	creator, err := services.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("events: creator lookup failed: %v", err)
	}

	respondJSON(w, http.StatusCreated, eventMap(event, creator))
}

// GetEvents lists all events ordered by date ascending.
func GetEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.M{"date": 1})
	cursor, err := database.DB.Collection("events").Find(ctx, bson.M{}, findOptions)
	if err != nil {
		log.Printf("events: query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		log.Printf("events: decode failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	creatorIDs := make([]primitive.ObjectID, 0, len(events))
	for _, e := range events {
		creatorIDs = append(creatorIDs, e.CreatedBy)
	}
	creators, err := services.GetUsersByIDs(ctx, creatorIDs)
	if err != nil {
		log.Printf("events: creator lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	result := make([]map[string]interface{}, 0, len(events))
	for _, e := range events {
		var creator *models.User
		if u, ok := creators[e.CreatedBy]; ok {
			creator = &u
		}
		result = append(result, eventMap(e, creator))
	}

	respondJSON(w, http.StatusOK, result)
}

// GetEvent returns a single event by id.
func GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var event models.Event
	err = database.DB.Collection("events").FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		log.Printf("events: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	creator, err := services.GetUserByID(ctx, event.CreatedBy)
	if err != nil {
		log.Printf("events: creator lookup failed: %v", err)
	}

	respondJSON(w, http.StatusOK, eventMap(event, creator))
}

// UpdateEvent edits an event; only its creator may do so.
func UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Recurring != "" && !models.ValidRecurring(req.Recurring) {
		respondError(w, http.StatusBadRequest, "Invalid recurring value")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var event models.Event
	err = database.DB.Collection("events").FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		log.Printf("events: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if event.CreatedBy != userID {
		respondError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	if req.Title != "" {
		event.Title = req.Title
	}
	if req.Description != "" {
		event.Description = req.Description
	}
	if req.Date != nil {
		event.Date = *req.Date
	}
	if req.Location != "" {
		event.Location = req.Location
	}
	if req.Recurring != "" {
		event.Recurring = req.Recurring
	}
	if req.NotifyUsers != nil {
		notifyUsers, err := parseUserIDs(req.NotifyUsers)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid notifyUsers value")
			return
		}
		event.NotifyUsers = notifyUsers
	}
	event.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"title":        event.Title,
		"description":  event.Description,
		"date":         event.Date,
		"location":     event.Location,
		"recurring":    event.Recurring,
		"notify_users": event.NotifyUsers,
		"updated_at":   event.UpdatedAt,
	}}
	if _, err := database.DB.Collection("events").UpdateOne(ctx, bson.M{"_id": eventID}, update); err != nil {
		log.Printf("events: update failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	creator, err := services.GetUserByID(ctx, event.CreatedBy)
	if err != nil {
		log.Printf("events: creator lookup failed: %v", err)
	}

	respondJSON(w, http.StatusOK, eventMap(event, creator))
}

// DeleteEvent removes an event; only its creator may do so.
func DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var event models.Event
	err = database.DB.Collection("events").FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		log.Printf("events: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if event.CreatedBy != userID {
		respondError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	if _, err := database.DB.Collection("events").DeleteOne(ctx, bson.M{"_id": eventID}); err != nil {
		log.Printf("events: delete failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondMessage(w, http.StatusOK, "Event deleted successfully")
}

// AttendEvent toggles the authenticated member's attendance on an event.
func AttendEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var event models.Event
	err = database.DB.Collection("events").FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		log.Printf("events: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	attending := false
	for _, a := range event.Attendees {
		if a == userID {
			attending = true
			break
		}
	}

	var update bson.M
	if attending {
		update = bson.M{"$pull": bson.M{"attendees": userID}}
	} else {
		update = bson.M{"$addToSet": bson.M{"attendees": userID}}
	}
	update["$set"] = bson.M{"updated_at": time.Now()}

	var updated models.Event
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = database.DB.Collection("events").
		FindOneAndUpdate(ctx, bson.M{"_id": eventID}, update, opts).
		Decode(&updated)
	if err != nil {
		log.Printf("events: attendance update failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	creator, err := services.GetUserByID(ctx, updated.CreatedBy)
	if err != nil {
		log.Printf("events: creator lookup failed: %v", err)
	}

	respondJSON(w, http.StatusOK, eventMap(updated, creator))
}
