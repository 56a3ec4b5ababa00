package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/tile-pairs-game/game/engine"
	"github.com/wricardo/tile-pairs-game/game/service"
)

func newTestClient(url string) *Client {
	return New(url, WithBackoff(time.Millisecond, 2*time.Millisecond))
}

func TestCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["config_id"] != "mini" {
			t.Errorf("Expected config_id mini, got %v", body)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:         "ab12",
			ConfigName: "mini",
			Board:      &engine.Snapshot{Stage: 1, TileCount: 24},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL + "/")
	info, err := c.CreateSession(context.Background(), "mini")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if c.SessionID() != "ab12" || info.Board.TileCount != 24 {
		t.Errorf("Unexpected session %q with board %+v", c.SessionID(), info.Board)
	}
}

func TestClickCell(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/ab12/click" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var req service.ClickRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.ByCell() || *req.Row != 2 || *req.Col != 3 {
			t.Errorf("Expected cell (2,3), got %+v", req)
		}
		json.NewEncoder(w).Encode(service.ClickResponse{Result: engine.ClickSelected, Success: true})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	c.UseSession("ab12")

	resp, err := c.ClickCell(context.Background(), 2, 3)
	if err != nil {
		t.Fatalf("ClickCell failed: %v", err)
	}
	if resp.Result != engine.ClickSelected {
		t.Errorf("Expected selected, got %s", resp.Result)
	}
}

func TestNoSession(t *testing.T) {
	c := newTestClient("http://localhost:0")
	ctx := context.Background()

	if _, err := c.Board(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Board: expected ErrNoSession, got %v", err)
	}
	if _, err := c.ClickPoint(ctx, engine.Point{X: 1, Y: 1}); !errors.Is(err, ErrNoSession) {
		t.Errorf("ClickPoint: expected ErrNoSession, got %v", err)
	}
	if err := c.Stream(ctx, func(Message) {}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Stream: expected ErrNoSession, got %v", err)
	}
}

func TestRetries(t *testing.T) {
	tests := []struct {
		name      string
		failures  int32
		status    int
		call      func(c *Client) error
		wantCalls int32
		wantErr   bool
	}{
		{
			name:      "read recovers after server errors",
			failures:  2,
			status:    http.StatusServiceUnavailable,
			call:      func(c *Client) error { _, err := c.Board(context.Background()); return err },
			wantCalls: 3,
		},
		{
			name:      "read gives up after retries",
			failures:  10,
			status:    http.StatusInternalServerError,
			call:      func(c *Client) error { _, err := c.Board(context.Background()); return err },
			wantCalls: 4,
			wantErr:   true,
		},
		{
			name:      "client errors are not retried",
			failures:  10,
			status:    http.StatusNotFound,
			call:      func(c *Client) error { _, err := c.Board(context.Background()); return err },
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name:      "clicks are not retried",
			failures:  10,
			status:    http.StatusInternalServerError,
			call:      func(c *Client) error { _, err := c.ClickCell(context.Background(), 0, 0); return err },
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= tt.failures {
					w.WriteHeader(tt.status)
					json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
					return
				}
				json.NewEncoder(w).Encode(engine.Snapshot{Stage: 1})
			}))
			defer server.Close()

			c := newTestClient(server.URL)
			c.UseSession("ab12")

			err := tt.call(c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("Expected %d calls, got %d", tt.wantCalls, got)
			}

			var apiErr *APIError
			if tt.wantErr && (!errors.As(err, &apiErr) || apiErr.StatusCode != tt.status || apiErr.Message != "boom") {
				t.Errorf("Expected APIError %d boom, got %v", tt.status, err)
			}
		})
	}
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws?session=ab12"},
		{"https://game.example.com", "wss://game.example.com/ws?session=ab12"},
		{"http://host/prefix/", "ws://host/prefix/ws?session=ab12"},
	}

	for _, tt := range tests {
		c := New(tt.base)
		c.UseSession("ab12")
		got, err := c.streamURL()
		if err != nil {
			t.Fatalf("streamURL(%s) failed: %v", tt.base, err)
		}
		if got != tt.want {
			t.Errorf("streamURL(%s) = %s, want %s", tt.base, got, tt.want)
		}
	}
}

func TestDecodeMessage(t *testing.T) {
	state, err := decodeMessage([]byte(`{"session_id":"ab12","event":"state_update","board":{"stage":3,"tile_count":8}}`))
	if err != nil {
		t.Fatalf("decode state failed: %v", err)
	}
	if state.Board == nil || state.Board.Stage != 3 || state.Event != nil {
		t.Errorf("Unexpected state message %+v", state)
	}

	event, err := decodeMessage([]byte(`{"session_id":"ab12","event":"game_event","data":{"type":"matched","stage":3,"message":"Matched a"}}`))
	if err != nil {
		t.Fatalf("decode event failed: %v", err)
	}
	if event.Event == nil || event.Event.Type != engine.EventMatched || event.Event.Message != "Matched a" {
		t.Errorf("Unexpected event message %+v", event)
	}

	if _, err := decodeMessage([]byte(`not json`)); err == nil {
		t.Error("Expected error for malformed frame")
	}
}

func TestStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var connections atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("session") != "ab12" {
			http.Error(w, "Invalid session", http.StatusNotFound)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Each connection sends one frame and hangs up to force a redial
		n := connections.Add(1)
		frame := map[string]interface{}{
			"session_id": "ab12",
			"event":      "state_update",
			"board":      map[string]interface{}{"stage": n},
		}
		conn.WriteJSON(frame)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	c.UseSession("ab12")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var stages []int
	err := c.Stream(ctx, func(m Message) {
		stages = append(stages, m.Board.Stage)
		if len(stages) == 2 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(stages) != 2 || stages[0] != 1 || stages[1] != 2 {
		t.Errorf("Expected stages [1 2] across a reconnect, got %v", stages)
	}
}

func TestStream_UnknownSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid session", http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	c.UseSession("gone")

	err := c.Stream(context.Background(), func(Message) {})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 APIError, got %v", err)
	}
	if !strings.Contains(err.Error(), "session not found") {
		t.Errorf("Unexpected message %v", err)
	}
}
