package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abic-consultancy/abic_backend/internal/metrics"
	"github.com/abic-consultancy/abic_backend/internal/notify"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Message is the envelope pushed to admin dashboards.
type Message struct {
	Type  string       `json:"type"`
	Event notify.Event `json:"event"`
}

// AdminHub fans submission events out to connected admin dashboards.
type AdminHub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	clients    map[*client]struct{}
	done       chan struct{}
}

func NewAdminHub() *AdminHub {
	return &AdminHub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		clients:    make(map[*client]struct{}),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled.
func (h *AdminHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.AdminWSClients.Inc()
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow client
					h.drop(c)
				}
			}
		}
	}
}

func (h *AdminHub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	metrics.AdminWSClients.Dec()
}

// Broadcast implements notify.Broadcaster. It never blocks; events are dropped
// when the hub is saturated.
func (h *AdminHub) Broadcast(ev notify.Event) {
	if h == nil {
		return
	}
	data, err := json.Marshal(Message{Type: "submission", Event: ev})
	if err != nil {
		slog.Error("ws: failed to marshal event", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Warn("ws: broadcast queue full, dropping event", "kind", ev.Kind, "id", ev.ID)
	}
}

type client struct {
	hub  *AdminHub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
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
