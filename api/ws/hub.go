// Package ws fans market data out to WebSocket subscribers.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"matchbook/infra/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	sendBuffer = 64
	writeWait  = 5 * time.Second
)

// Msg is a message sent to clients.
type Msg struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub tracks connections and the message types each one wants. A new
// connection receives every type until it unsubscribes.
type Hub struct {
	mu    sync.RWMutex
	conns map[*conn]bool
	log   zerolog.Logger
}

type conn struct {
	ws   *websocket.Conn
	send chan []byte
	hub  *Hub

	// guarded by hub.mu
	muted map[string]bool
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		conns: make(map[*conn]bool),
		log:   log,
	}
}

// Broadcast sends a message to every subscriber of msgType. Clients
// whose send buffer is full miss the message.
func (h *Hub) Broadcast(msgType string, data any) {
	b, err := json.Marshal(Msg{Type: msgType, Data: data})
	if err != nil {
		h.log.Error().Err(err).Str("type", msgType).Msg("encode message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		if c.muted[msgType] {
			continue
		}
		select {
		case c.send <- b:
		default:
			// slow client, drop
		}
	}
}

// Clients returns the number of open connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// HandleWS is the HTTP handler for WebSocket connections.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	c := &conn{
		ws:    wsConn,
		send:  make(chan []byte, sendBuffer),
		hub:   h,
		muted: make(map[string]bool),
	}
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
	metrics.WSClients.Inc()

	go c.writePump()
	go c.readPump()
}

func (c *conn) readPump() {
	defer func() {
		c.hub.removeConn(c)
		c.ws.Close()
	}()
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			break
		}
		// {"action":"subscribe|unsubscribe","type":"trade|top"}
		var sub struct {
			Action string `json:"action"`
			Type   string `json:"type"`
		}
		if err := json.Unmarshal(msg, &sub); err != nil {
			continue
		}
		switch sub.Action {
		case "subscribe":
			c.hub.setMuted(c, sub.Type, false)
		case "unsubscribe":
			c.hub.setMuted(c, sub.Type, true)
		}
	}
}

func (c *conn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

func (h *Hub) setMuted(c *conn, msgType string, muted bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if muted {
		c.muted[msgType] = true
	} else {
		delete(c.muted, msgType)
	}
}

func (h *Hub) removeConn(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.conns[c] {
		return
	}
	delete(h.conns, c)
	close(c.send)
	metrics.WSClients.Dec()
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		h.removeConn(c)
		c.ws.Close()
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.HandleWS(w, r) }
