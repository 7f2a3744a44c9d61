package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/services"
)

// Room fan-out and read-loop acks arrive from different goroutines; both must
// funnel through the single writer or gorilla panics on overlapping writes.
func TestChatWriterSerializesRoomEventsAndAcks(t *testing.T) {
	events := make(chan services.ChatEvent)
	outbound := make(chan services.ChatEvent, 16)
	done := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		runChatWriter(conn, events, outbound, done)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()

	const perSource = 50

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < perSource; i++ {
			events <- services.ChatEvent{Type: services.EventTypeMessage, Room: "general"}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perSource; i++ {
			outbound <- services.ChatEvent{Type: services.EventTypeMessageAck, Room: "general"}
		}
	}()

	got := map[string]int{}
	for i := 0; i < perSource*2; i++ {
		client.SetReadDeadline(time.Now().Add(5 * time.Second))
		var event services.ChatEvent
		require.NoError(t, client.ReadJSON(&event))
		got[event.Type]++
	}
	wg.Wait()
	close(done)

	assert.Equal(t, perSource, got[services.EventTypeMessage])
	assert.Equal(t, perSource, got[services.EventTypeMessageAck])
}

func TestEnqueueEventDropsAfterWriterExit(t *testing.T) {
	outbound := make(chan services.ChatEvent) // unbuffered, nobody reading
	writerDone := make(chan struct{})
	close(writerDone)

	doneCh := make(chan struct{})
	go func() {
		enqueueEvent(outbound, writerDone, errorEvent("nope"))
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("enqueueEvent blocked after the writer exited")
	}
}

func TestCheckWSOrigin(t *testing.T) {
	old := allowedOrigins
	allowedOrigins = []string{"http://localhost:5173", "https://app.example.com"}
	defer func() { allowedOrigins = old }()

	req := httptest.NewRequest(http.MethodGet, "/ws/chat", nil)
	assert.True(t, checkWSOrigin(req), "non-browser clients send no Origin")

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, checkWSOrigin(req))

	req.Header.Set("Origin", "HTTPS://APP.EXAMPLE.COM")
	assert.True(t, checkWSOrigin(req), "origin match is case-insensitive")

	req.Header.Set("Origin", "http://evil.example.com")
	assert.False(t, checkWSOrigin(req))
}
