package connection

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// chatServer accepts /ws/chat/* sockets, records inbound frames and lets the
// test push frames to the most recent connection.
type chatServer struct {
	*httptest.Server

	mu       sync.Mutex
	conn     *websocket.Conn
	paths    []string
	received chan []byte
	ready    chan struct{}
}

func newChatServer(t *testing.T) *chatServer {
	s := &chatServer{
		received: make(chan []byte, 16),
		ready:    make(chan struct{}, 4),
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()

		s.mu.Lock()
		s.conn = conn
		s.paths = append(s.paths, r.URL.Path)
		s.mu.Unlock()
		s.ready <- struct{}{}

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.received <- msg
		}
	}))
	return s
}

func (s *chatServer) push(t *testing.T, frame string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

func newLiveChannels(t *testing.T, baseURL string) *Channels {
	t.Helper()
	cfg := DefaultRegistryConfig()
	cfg.BaseURL = baseURL
	reg := NewRegistry(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		reg.Shutdown(ctx)
	})
	return NewChannels(reg)
}

func TestChannels_ChatRoundTrip(t *testing.T) {
	server := newChatServer(t)
	defer server.Close()

	ch := newLiveChannels(t, server.URL)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ch.now = func() time.Time { return fixed }

	rec := newRecorder()
	if !ch.ConnectToChat("M1", rec.handlers()) {
		t.Fatal("ConnectToChat returned false")
	}
	rec.expect(t, "connected:true")
	<-server.ready

	server.mu.Lock()
	path := server.paths[0]
	server.mu.Unlock()
	if path != "/ws/chat/M1" {
		t.Errorf("path = %q, want /ws/chat/M1", path)
	}

	// Inbound
	server.push(t, `{"type":"chat_message","data":{"meetingId":"M1","message":"hi","senderId":"u1","senderName":"Alice","timestamp":"2024-01-01T00:00:00Z"},"timestamp":"2024-01-01T00:00:00Z"}`)
	rec.expect(t, "message:chat_message", "chat")

	// Outbound
	if !ch.SendChatMessage("M1", "hello back", "u2", "Bob") {
		t.Fatal("SendChatMessage returned false")
	}

	select {
	case frame := <-server.received:
		var env struct {
			Type      string            `json:"type"`
			Data      map[string]string `json:"data"`
			Timestamp string            `json:"timestamp"`
		}
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if env.Type != "chat_message" || env.Timestamp != "2024-01-01T00:00:00Z" {
			t.Errorf("envelope = %+v", env)
		}
		want := map[string]string{
			"meetingId":  "M1",
			"message":    "hello back",
			"senderId":   "u2",
			"senderName": "Bob",
			"timestamp":  "2024-01-01T00:00:00Z",
		}
		for k, v := range want {
			if env.Data[k] != v {
				t.Errorf("data[%q] = %q, want %q", k, env.Data[k], v)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive chat message")
	}

	// Participant updates go to the meeting channel, which is not connected
	if ch.SendParticipantUpdate("M1", ActionMuted, "u2") {
		t.Error("SendParticipantUpdate on unconnected meeting returned true")
	}

	ch.DisconnectFromChat("M1")
	if ch.Registry().IsConnected(ChatEndpoint("M1")) {
		t.Error("expected chat to be disconnected")
	}
	if ch.SendChatMessage("M1", "gone", "u2", "Bob") {
		t.Error("SendChatMessage after disconnect returned true")
	}
	rec.expectQuiet(t)
}

func TestChannels_ServerDropTriggersReconnect(t *testing.T) {
	server := newChatServer(t)
	defer server.Close()

	cfg := DefaultRegistryConfig()
	cfg.BaseURL = server.URL
	cfg.ReconnectBaseDelay = 10 * time.Millisecond
	reg := NewRegistry(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer reg.DisconnectAll()
	ch := NewChannels(reg)

	rec := newRecorder()
	ch.ConnectToNotifications(rec.handlers())
	rec.expect(t, "connected:true")
	<-server.ready

	server.mu.Lock()
	server.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart"))
	server.conn.Close()
	server.mu.Unlock()

	rec.expect(t, "connected:false", "connected:true")
	<-server.ready

	if !reg.IsConnected(NotificationsEndpoint) {
		t.Error("expected reconnection")
	}

	server.mu.Lock()
	n := len(server.paths)
	server.mu.Unlock()
	if n != 2 {
		t.Errorf("server saw %d connections, want 2", n)
	}
}

func TestChannels_InvalidAction(t *testing.T) {
	ch := NewChannels(NewRegistry(DefaultRegistryConfig(), nil))
	if ch.SendParticipantUpdate("M1", ParticipantAction("waving"), "p1") {
		t.Error("expected false for invalid action")
	}
}
