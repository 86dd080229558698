package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tinkerloft/frontdesk/internal/bus"
	"github.com/tinkerloft/frontdesk/internal/metrics"
)

const (
	// writeWait bounds each outbound frame write.
	writeWait = 10 * time.Second
	// pongWait is how long a client may go silent before it is dropped.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize bounds inbound heartbeat frames.
	maxMessageSize = 1024
	// clientBuffer is the per-client outbound queue. A client that falls
	// this far behind is disconnected rather than blocking the broadcast.
	clientBuffer = 16
)

// heartbeatReply is sent in response to any client text frame.
var heartbeatReply = []byte(`{"type":"heartbeat","status":"ok"}`)

// Hub fans bus events out to connected dashboard WebSocket clients.
type Hub struct {
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics // may be nil

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// wsClient's send channel is never closed; shutdown is signalled through
// done so both pumps and the broadcaster can race freely on send.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// close signals both pumps to exit. Safe to call from any goroutine,
// any number of times.
func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// NewHub creates a Hub. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from a separate origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		metrics: m,
		clients: make(map[*wsClient]struct{}),
	}
}

// Run forwards bus events to all connected clients until ctx is cancelled
// or the subscriber closes. It blocks; cmd/server runs it in a goroutine.
func (h *Hub) Run(ctx context.Context, sub *bus.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			h.Broadcast(ev)
		}
	}
}

// Broadcast queues an event to every connected client. Clients with full
// queues are disconnected.
func (h *Hub) Broadcast(ev bus.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("failed to encode event for broadcast", "type", ev.Type, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
			if h.metrics != nil {
				h.metrics.EventsDeliveredTotal.Inc()
			}
		default:
			h.dropLocked(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WebSocketClients.Inc()
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		h.dropLocked(c)
	}
	h.mu.Unlock()
}

// dropLocked unregisters a client and signals its pumps to exit. It never
// closes the send channel, so a concurrent enqueue from the client's own
// readPump cannot hit a closed channel. Caller holds h.mu.
func (h *Hub) dropLocked(c *wsClient) {
	delete(h.clients, c)
	c.close()
	if h.metrics != nil {
		h.metrics.WebSocketClients.Dec()
	}
}

// handleWS upgrades the connection and runs the client pumps.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "err", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, clientBuffer), done: make(chan struct{})}
	s.hub.add(c)

	go c.writePump()
	go c.readPump(s.hub)
}

// readPump consumes client frames. Every inbound text frame, whatever its
// content, is answered with the heartbeat reply; pongs extend the read
// deadline.
func (c *wsClient) readPump(h *Hub) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		select {
		case c.send <- heartbeatReply:
		case <-c.done:
			return
		default:
		}
	}
}

// writePump drains the send queue and keeps the protocol-level ping going
// until the client is closed.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
