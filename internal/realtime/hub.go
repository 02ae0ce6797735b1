package realtime

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// EventChatHistoryUpdate is emitted after a conversation write.
const EventChatHistoryUpdate = "chat_history_update"

const (
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	pingInterval  = 54 * time.Second
)

type outgoingEvent struct {
	Event     string `json:"event"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Hub fans events out to every connected subscriber on the chat channel.
// Delivery is fire-and-forget: no acknowledgment, no retry, and no scoping by
// user identity, so every subscriber sees every session's updates.
type Hub struct {
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*websocket.Conn]struct{}
}

// NewHub returns a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		subscribers: make(map[*websocket.Conn]struct{}),
	}
}

// RegisterRoutes mounts the subscriber endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat", h.handleSubscribe)
}

func (h *Hub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[realtime] upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.subscribers[conn] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()
	log.Printf("[realtime] subscriber connected, total=%d", count)

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	done := make(chan struct{})
	go h.pingLoop(conn, done)

	// Subscribers only listen; the read loop exists to notice the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[realtime] read error: %v", err)
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))
	}

	close(done)
	h.remove(conn)
}

// Broadcast sends the event to every subscriber. Connections whose writes
// fail are dropped; failures are never surfaced to the caller.
func (h *Hub) Broadcast(event string, payload any) {
	msg := outgoingEvent{
		Event:     event,
		Data:      payload,
		Timestamp: time.Now().Unix(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.subscribers {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("[realtime] broadcast write failed: %v", err)
			conn.Close()
			delete(h.subscribers, conn)
		}
	}
}

// SubscriberCount reports the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[conn]; ok {
		conn.Close()
		delete(h.subscribers, conn)
	}
}

func (h *Hub) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}
