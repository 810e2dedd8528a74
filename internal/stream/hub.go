// Package stream pushes new results list entries to connected pages over
// websockets, and follows such a stream from the other end.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/metalcon/newswidget/internal/domain"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	sendBuffer   = 16
	readLimit    = 512
)

// Hub accepts websocket subscribers and broadcasts every published entry to
// all of them except the page that submitted it. A subscriber whose buffer
// is full is disconnected rather than slowing down the others.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	clients map[uuid.UUID]*client
	closed  bool
}

type client struct {
	id      uuid.UUID
	session string
	conn    *websocket.Conn
	send    chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger:  logger,
		now:     time.Now,
		clients: make(map[uuid.UUID]*client),
	}
}

// ServeHTTP upgrades the request and keeps the subscriber registered until
// the connection closes. The session query parameter names the page the
// subscriber belongs to.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:      uuid.New(),
		session: r.URL.Query().Get("session"),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}
	if !h.register(c) {
		conn.Close()
		return
	}
	h.logger.Info("stream subscriber connected", "subscriber", c.id, "remote", r.RemoteAddr)

	go h.writeLoop(c)
	h.readLoop(c)

	h.unregister(c)
	h.logger.Info("stream subscriber disconnected", "subscriber", c.id)
}

// PublishEntry broadcasts a rendered entry to every subscriber outside the
// entry's session.
func (h *Hub) PublishEntry(entry domain.RenderedEntry) {
	data, err := json.Marshal(Event{
		Kind:      KindEntry,
		ID:        entry.Entry.ID,
		HTML:      string(entry.HTML),
		Confirmed: entry.Confirmed,
		At:        h.now().UTC(),
	})
	if err != nil {
		h.logger.Error("failed to encode stream event", "error", err)
		return
	}
	h.broadcast(data, entry.Session)
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

func (h *Hub) broadcast(data []byte, skipSession string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		if skipSession != "" && c.session == skipSession {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow stream subscriber", "subscriber", id)
			delete(h.clients, id)
			close(c.send)
		}
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
}

// readLoop discards inbound messages and returns once the peer is gone.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
