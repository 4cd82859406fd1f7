package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

func TestBroadcastReachesSessionSubscribers(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?session_id=s1"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Wait until the hub has registered the subscriber.
	for i := 0; i < 100 && hub.SubscriberCount("s1") == 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.SubscriberCount("s1") != 1 {
		t.Fatal("subscriber never registered")
	}

	hub.Broadcast("s1", map[string]any{"type": "image_generated", "canvas_id": "c1"})
	hub.Broadcast("other-session", map[string]any{"type": "image_generated"})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg["canvas_id"] != "c1" {
		t.Errorf("message = %v", msg)
	}
}

func TestBroadcastToEmptySessionIsNoop(t *testing.T) {
	hub := NewHub(nil)
	// Must not panic or block.
	hub.Broadcast("nobody", map[string]any{"type": "x"})
}

func TestMissingSessionIDRejected(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
