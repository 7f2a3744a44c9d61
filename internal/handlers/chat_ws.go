package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/middleware"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/models"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/services"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsMaxMsgSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkWSOrigin,
}

// checkWSOrigin admits non-browser clients (no Origin header) and browsers
// on a configured origin; everything else is refused before the upgrade.
func checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

type inboundChatMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ChatWebSocket upgrades an authenticated connection into a chat room. The
// token comes from the usual headers or, for browser WebSocket clients that
// cannot set headers, the ?token query parameter.
func ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	userID, err := tokenService.VerifyAccess(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	stored, err := tokenStore.Exists(checkCtx, token, models.TokenKindAccess)
	cancel()
	if err != nil {
		log.Printf("chat: token store lookup failed: %v", err)
		respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		return
	}
	if !stored {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	room := r.URL.Query().Get("room")
	if room == "" {
		room = "general"
	}

	senderName := ""
	if oid, err := primitive.ObjectIDFromHex(userID); err == nil {
		lookupCtx, cancelLookup := context.WithTimeout(r.Context(), 5*time.Second)
		if user, err := services.GetUserByID(lookupCtx, oid); err == nil && user != nil {
			senderName = user.Name
		}
		cancelLookup()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("chat: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := services.SubscribeRoom(room)
	defer unsubscribe()

	// The writer goroutine owns every write to conn: gorilla/websocket
	// supports a single concurrent writer, so acks and errors from the read
	// loop go through the outbound channel instead of writing directly.
	outbound := make(chan services.ChatEvent, 16)
	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		runChatWriter(conn, events, outbound, done)
	}()
	defer close(done)

	conn.SetReadLimit(wsMaxMsgSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	// One message per second with a small burst, per connection.
	limiter := rate.NewLimiter(rate.Every(time.Second), 5)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("chat: read error: %v", err)
			}
			return
		}

		var inbound inboundChatMessage
		if err := json.Unmarshal(data, &inbound); err != nil {
			enqueueEvent(outbound, writerDone, errorEvent("Invalid message"))
			continue
		}
		if inbound.Type != services.EventTypeMessage || inbound.Text == "" {
			continue
		}
		if !limiter.Allow() {
			enqueueEvent(outbound, writerDone, errorEvent("Too many messages, slow down"))
			continue
		}

		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		saved, err := services.SaveChatMessage(saveCtx, services.ChatMessage{
			Room:       room,
			SenderID:   userID,
			SenderName: senderName,
			Text:       inbound.Text,
		})
		if err != nil {
			cancel()
			log.Printf("chat: save failed: %v", err)
			enqueueEvent(outbound, writerDone, errorEvent("Failed to send message"))
			continue
		}

		if err := services.PublishChatEvent(saveCtx, services.ChatEvent{
			Type:    services.EventTypeMessage,
			Room:    room,
			Message: &saved,
		}); err != nil {
			log.Printf("chat: publish failed: %v", err)
		}
		cancel()

		enqueueEvent(outbound, writerDone, services.ChatEvent{
			Type:      services.EventTypeMessageAck,
			Room:      room,
			Message:   &saved,
			Timestamp: time.Now().UTC(),
		})
	}
}

// runChatWriter is the single writer for a connection: room fan-out events,
// direct acks and errors from the read loop, and keepalive pings.
func runChatWriter(conn *websocket.Conn, events <-chan services.ChatEvent, outbound <-chan services.ChatEvent, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if !writeEvent(conn, event) {
				return
			}
		case event := <-outbound:
			if !writeEvent(conn, event) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, event services.ChatEvent) bool {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(event) == nil
}

// enqueueEvent hands a direct event to the writer goroutine. If the writer
// has already exited the event is dropped; the read loop will hit the closed
// connection on its next read.
func enqueueEvent(outbound chan<- services.ChatEvent, writerDone <-chan struct{}, event services.ChatEvent) {
	select {
	case outbound <- event:
	case <-writerDone:
	}
}

func errorEvent(message string) services.ChatEvent {
	return services.ChatEvent{
		Type:      services.EventTypeError,
		Error:     message,
		Timestamp: time.Now().UTC(),
	}
}
