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

type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdatePostRequest struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

func postMap(p models.Post, author *models.User) map[string]interface{} {
	out := map[string]interface{}{
		"id":         p.ID.Hex(),
		"title":      p.Title,
		"content":    p.Content,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
	if author != nil {
		out["user"] = author.Public()
	} else {
		out["user"] = map[string]interface{}{"id": p.UserID.Hex()}
	}
	return out
}

// CreatePost publishes a new bulletin-board post for the authenticated member.
func CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.Content == "" {
		respondError(w, http.StatusBadRequest, "Title and content are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := time.Now()
	post := models.Post{
		ID:        primitive.NewObjectID(),
		CreatedAt: now,
		UpdatedAt: now,
		Title:     req.Title,
		Content:   req.Content,
		UserID:    userID,
	}

	if _, err := database.DB.Collection("posts").InsertOne(ctx, post); err != nil {
		log.Printf("posts: insert failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	author, err := services.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("posts: author lookup failed: %v", err)
	}

	respondJSON(w, http.StatusCreated, postMap(post, author))
}

// GetPosts lists all posts, newest first, with author details embedded.
func GetPosts(w http.ResponseWriter, r *http.Request) {
	listPosts(w, r, bson.M{})
}

// GetMyPosts lists the authenticated member's own posts.
func GetMyPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	listPosts(w, r, bson.M{"user_id": userID})
}

func listPosts(w http.ResponseWriter, r *http.Request, filter bson.M) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := database.DB.Collection("posts").Find(ctx, filter, findOptions)
	if err != nil {
		log.Printf("posts: query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		log.Printf("posts: decode failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	authorIDs := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.UserID)
	}
	authors, err := services.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		log.Printf("posts: author lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	result := make([]map[string]interface{}, 0, len(posts))
	for _, p := range posts {
		var author *models.User
		if a, ok := authors[p.UserID]; ok {
			author = &a
		}
		result = append(result, postMap(p, author))
	}

	respondJSON(w, http.StatusOK, result)
}

// UpdatePost edits a post; only its author may do so.
func UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	postID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var post models.Post
	err = database.DB.Collection("posts").FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		log.Printf("posts: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if post.UserID != userID {
		respondError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Content != "" {
		post.Content = req.Content
	}
	post.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"title":      post.Title,
		"content":    post.Content,
		"updated_at": post.UpdatedAt,
	}}
	_, err = database.DB.Collection("posts").UpdateOne(ctx, bson.M{"_id": postID}, update)
	if err != nil {
		log.Printf("posts: update failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	author, err := services.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("posts: author lookup failed: %v", err)
	}

	respondJSON(w, http.StatusOK, postMap(post, author))
}

// DeletePost removes a post; only its author may do so.
func DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	postID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var post models.Post
	err = database.DB.Collection("posts").FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		log.Printf("posts: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if post.UserID != userID {
		respondError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	if _, err := database.DB.Collection("posts").DeleteOne(ctx, bson.M{"_id": postID}); err != nil {
		log.Printf("posts: delete failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondMessage(w, http.StatusOK, "Post deleted successfully")
}
