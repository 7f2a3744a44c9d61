package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/services"
)

// LoadChatHistory returns paginated history for a chat room. Pass ?before as
// RFC 3339 to page back from a known message timestamp.
func LoadChatHistory(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		room = "general"
	}

	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid before timestamp")
			return
		}
		before = &t
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	messages, hasMore, err := services.LoadChatMessages(ctx, room, before, limit)
	if err != nil {
		log.Printf("chat: history query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"room":     room,
		"messages": messages,
		"hasMore":  hasMore,
	})
}
