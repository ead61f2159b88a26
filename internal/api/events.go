package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kalambet/kindred/internal/monitor"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	clientQueue = 16
)

// Event is pushed to every connected browser.
type Event struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Tone string `json:"tone"`
}

type client struct {
	send chan Event
}

// Hub fans proactive prompts out to websocket clients. It is a
// monitor.Announcer, and a monitor.Gate that reports busy while nobody
// is connected so prompts wait for a listener.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Busy() bool { return h.Clients() == 0 }

func (h *Hub) Announce(_ context.Context, p monitor.Prompt) {
	h.Broadcast(Event{Type: string(p.Kind), Text: p.Text, Tone: string(p.Tone)})
}

// Broadcast queues ev for every client. Clients whose queue is full miss
// the event.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.logger.Warn("websocket client queue full, dropping event", "type", ev.Type)
		}
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{send: make(chan Event, clientQueue)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.Clients())

	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(conn, c, done)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	conn.Close()
	h.logger.Debug("websocket client disconnected", "clients", h.Clients())
}

// readLoop discards client frames and closes done when the peer goes away.
func (h *Hub) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case ev := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
