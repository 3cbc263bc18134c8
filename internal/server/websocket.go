package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/campusctl/campusctl/internal/logging"
)

const (
	// Time allowed to write an event to a subscriber
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from a subscriber
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Per-subscriber event buffer; slow subscribers are dropped when it fills
	subscriberBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stub is a local development tool; any origin may subscribe.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans state-change events out to WebSocket subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]bool
	closed      bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan Event
}

// NewHub creates an event hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[*subscriber]bool)}
}

// Broadcast delivers an event to every subscriber. Subscribers whose send
// buffer is full are disconnected rather than allowed to stall the store.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		select {
		case sub.send <- event:
		default:
			delete(h.subscribers, sub)
			close(sub.send)
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket and streams events until the
// subscriber disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("Failed to upgrade event feed connection",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.subscribers[sub] = true
	count := len(h.subscribers)
	h.mu.Unlock()

	logging.LogEventFeed(r.RemoteAddr, "subscribed", count)

	go sub.writeLoop()
	sub.readLoop(h)
}

// Close disconnects all subscribers and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for sub := range h.subscribers {
		delete(h.subscribers, sub)
		close(sub.send)
	}
}

// writeLoop pumps events to the peer and keeps the connection alive with
// pings. It exits when the send channel is closed.
func (sub *subscriber) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()

	for {
		select {
		case event, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards inbound messages and unregisters on disconnect. The
// event feed is one-way; reads exist only to process control frames.
func (sub *subscriber) readLoop(h *Hub) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.subscribers[sub]; ok {
			delete(h.subscribers, sub)
			close(sub.send)
		}
		count := len(h.subscribers)
		h.mu.Unlock()
		_ = sub.conn.Close()
		logging.LogEventFeed(sub.conn.RemoteAddr().String(), "unsubscribed", count)
	}()

	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}
