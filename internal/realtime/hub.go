// Package realtime pushes server events to connected canvas viewers over
// websockets. Delivery is best-effort: slow or dead subscribers are dropped,
// never waited on.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// sendBuffer is the per-subscriber outbound queue. A subscriber that falls
// this far behind is disconnected.
const sendBuffer = 32

type subscriber struct {
	session string
	send    chan []byte
}

// Hub tracks subscribers grouped by session id.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		logger: logger,
	}
}

// Broadcast sends message to every subscriber of sessionID. It never blocks:
// full subscriber queues drop the message.
func (h *Hub) Broadcast(sessionID string, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to encode broadcast", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[sessionID] {
		select {
		case sub.send <- data:
		default:
			h.logger.Warn("dropping broadcast to slow subscriber",
				slog.String("session_id", sessionID))
		}
	}
}

// ServeHTTP upgrades the request and streams broadcasts for the session
// named by the session_id query parameter until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sub := &subscriber{session: sessionID, send: make(chan []byte, sendBuffer)}
	h.add(sub)
	defer h.remove(sub)

	ctx := r.Context()

	// Reader goroutine only watches for close; clients do not send data.
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-sub.send:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[sub.session] == nil {
		h.subs[sub.session] = make(map[*subscriber]struct{})
	}
	h.subs[sub.session][sub] = struct{}{}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[sub.session], sub)
	if len(h.subs[sub.session]) == 0 {
		delete(h.subs, sub.session)
	}
}

// SubscriberCount reports how many connections follow a session.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
