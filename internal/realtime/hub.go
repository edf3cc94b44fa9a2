package realtime

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/splitnest/splitnest/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1 MiB

	defaultBufferSize = 64
)

// Event represents a JSON payload delivered to connected clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type clientMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Hub is the registry of live websocket connections. A connection joins
// unauthenticated and is bound to a user only after it sends an auth
// handshake message; broadcasts skip unauthenticated connections and the
// originator's own sessions.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*connection]struct{}
	upgrader websocket.Upgrader
}

// NewHub constructs a realtime hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Allow same-origin requests and explicit localhost development.
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				requestHost := hostWithoutPort(r.Host)
				return originHost == requestHost || isLoopback(originHost)
			},
		},
	}
}

// Serve upgrades the HTTP connection to a WebSocket and runs its read/write
// loops until the peer disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}

	client := newConnection(h, conn)
	h.register(client)

	go client.writeLoop()
	client.readLoop()
}

// Broadcast delivers an event to every authenticated connection except those
// bound to the originating user. There is no delivery guarantee and no
// backlog for sessions that connect later.
func (h *Hub) Broadcast(originatorID string, event Event) {
	h.mu.RLock()
	delivered := false
	var stalled []*connection
	for client := range h.sessions {
		userID := client.boundUser()
		if userID == "" || userID == originatorID {
			continue
		}
		select {
		case client.send <- event:
			delivered = true
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()

	// close re-enters the registry lock through unregister, so stalled
	// clients are dropped only after the read lock is released.
	for _, client := range stalled {
		log.Printf("realtime: dropping backpressure client (user=%s)", client.boundUser())
		client.close()
	}
	if delivered {
		metrics.BroadcastEvents.WithLabelValues(event.Type).Inc()
	}
}

// ConnectionCount reports the number of open connections, authenticated or not.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) register(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[client] = struct{}{}
	metrics.RealtimeConnections.Set(float64(len(h.sessions)))
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions, client)
	metrics.RealtimeConnections.Set(float64(len(h.sessions)))
}

type connection struct {
	hub    *Hub
	socket *websocket.Conn
	send   chan Event
	once   sync.Once

	mu     sync.RWMutex
	userID string
	closed bool
}

func newConnection(hub *Hub, conn *websocket.Conn) *connection {
	return &connection{
		hub:    hub,
		socket: conn,
		send:   make(chan Event, defaultBufferSize),
	}
}

func (c *connection) boundUser() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *connection) bindUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
}

// trySend queues an event without blocking. The event is dropped when the
// writer has fallen behind or the connection is already closed; holding the
// read lock keeps close from shutting the channel mid-send.
func (c *connection) trySend(event Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- event:
	default:
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("realtime: unexpected close for user=%s: %v", c.boundUser(), err)
			}
			break
		}

		if len(payload) == 0 {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("realtime: invalid payload for user=%s: %v", c.boundUser(), err)
			continue
		}

		switch strings.ToLower(strings.TrimSpace(msg.Type)) {
		case "auth":
			if strings.TrimSpace(msg.UserID) == "" {
				log.Printf("realtime: auth message without user id")
				continue
			}
			c.bindUser(strings.TrimSpace(msg.UserID))
			c.trySend(Event{Type: "auth_success"})
		case "ping":
			c.trySend(Event{Type: "pong"})
		default:
			log.Printf("realtime: unsupported message type '%s' for user=%s", msg.Type, c.boundUser())
		}
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.send)
		_ = c.socket.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
