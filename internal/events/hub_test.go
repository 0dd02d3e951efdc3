package events

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubGroupsEventsPerTick(t *testing.T) {
	hub := NewHub("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Emit(Event{Type: ConvoyMoved, Tick: 1})
	hub.Emit(Event{Type: StarOwned, Tick: 1})
	hub.Emit(Event{Type: TickCompleted, Tick: 1})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var got []Event
	if err := json.Unmarshal(frame, &got); err != nil {
		t.Fatalf("frame is not an event list: %v", err)
	}
	if len(got) != 3 || got[2].Type != TickCompleted {
		t.Errorf("frame = %+v", got)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHubFlushSendsBetweenTicks(t *testing.T) {
	hub := NewHub("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Emit(Event{Type: StarResourceChanged, Tick: 4})
	hub.Emit(Event{Type: ConvoySpawned, Tick: 4})
	hub.Flush()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var got []Event
	if err := json.Unmarshal(frame, &got); err != nil {
		t.Fatalf("frame is not an event list: %v", err)
	}
	if len(got) != 2 || got[0].Type != StarResourceChanged || got[1].Type != ConvoySpawned {
		t.Errorf("frame = %+v", got)
	}

	hub.Flush()
	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, frame, err := conn.ReadMessage(); err == nil {
		t.Errorf("empty flush sent frame %s", frame)
	}
}

func TestHubWithoutClientsBuffersNothing(t *testing.T) {
	hub := NewHub("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	hub.Emit(Event{Type: StarOwned})
	if len(hub.pending) != 0 {
		t.Errorf("pending = %d, want 0", len(hub.pending))
	}
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		allowed string
		origin  string
		want    bool
	}{
		{"", "http://evil.example", true},
		{"http://localhost:3000", "", true},
		{"http://localhost:3000", "http://localhost:3000", true},
		{"http://localhost:3000", "http://localhost:4000", false},
		{"https://play.example.com", "http://play.example.com", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/stream", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := originAllowed(tt.allowed, r); got != tt.want {
			t.Errorf("originAllowed(%q, %q) = %v, want %v", tt.allowed, tt.origin, got, tt.want)
		}
	}
}
