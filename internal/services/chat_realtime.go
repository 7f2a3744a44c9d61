package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/database"
)

// Chat event types broadcast over Redis and WebSocket.
const (
	EventTypeMessage    = "message"
	EventTypeMessageAck = "message_ack"
	EventTypeError      = "error"
)

// ChatEvent is the payload fanned out to every connection in a room.
type ChatEvent struct {
	Type      string       `json:"type"`
	Room      string       `json:"room,omitempty"`
	Message   *ChatMessage `json:"message,omitempty"`
	Error     string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp,omitempty"`
}

// chatHub fans Redis events out to the WebSocket connections on this
// instance. Each subscriber gets its own buffered channel; slow consumers
// drop events rather than blocking the hub.
type chatHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan ChatEvent]struct{} // room -> subscriber channels
}

var hub = &chatHub{subs: make(map[string]map[chan ChatEvent]struct{})}

var subscriberStarted sync.Once

// SubscribeRoom registers a local subscriber for a room. The returned
// function unsubscribes and closes the channel.
func SubscribeRoom(room string) (<-chan ChatEvent, func()) {
	ch := make(chan ChatEvent, 32)

	hub.mu.Lock()
	if hub.subs[room] == nil {
		hub.subs[room] = make(map[chan ChatEvent]struct{})
	}
	hub.subs[room][ch] = struct{}{}
	hub.mu.Unlock()

	unsubscribe := func() {
		hub.mu.Lock()
		if set, ok := hub.subs[room]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(hub.subs, room)
			}
		}
		hub.mu.Unlock()
	}
	return ch, unsubscribe
}

func fanOut(event ChatEvent) {
	if event.Room == "" {
		return
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for ch := range hub.subs[event.Room] {
		select {
		case ch <- event:
		default:
			// Subscriber too slow; drop rather than block the hub.
		}
	}
}

// PublishChatEvent publishes an event to Redis so every instance fans it out
// to its local connections.
func PublishChatEvent(ctx context.Context, event ChatEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, "chat:room:"+event.Room, data).Err()
}

// StartChatSubscriber ensures a single shared Redis listener per instance.
func StartChatSubscriber(ctx context.Context) {
	subscriberStarted.Do(func() {
		go runChatSubscriber(ctx)
	})
}

func runChatSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; chat subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, "chat:room:*")
			defer pubsub.Close()

			log.Println("✅ Chat Redis subscriber started (pattern: chat:room:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event ChatEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal chat event: %v", err)
					continue
				}
				fanOut(event)
			}
		}()
	}
}
