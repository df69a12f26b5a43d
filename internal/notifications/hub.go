package notifications

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event types pushed over the websocket.
const (
	EventNotificationNew = "notification_new"
	EventSessionClosed   = "session_closed"
)

type wsEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type client struct {
	id        string
	sessionID string
	conn      *websocket.Conn
	writeMu   sync.Mutex
}

func (c *client) send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

const writeWait = 10 * time.Second

// Hub tracks the websocket connections of every signed-in session.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (h *Hub) register(sessionID string, conn *websocket.Conn) *client {
	c := &client{id: uuid.New().String(), sessionID: sessionID, conn: conn}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
}

func (h *Hub) matching(match func(*client) bool) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*client
	for _, c := range h.clients {
		if match(c) {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) broadcast(targets []*client, evt wsEvent) int {
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[ws][ERROR] encode %s: %v", evt.Type, err)
		return 0
	}
	sent := 0
	for _, c := range targets {
		if err := c.send(payload); err != nil {
			log.Printf("[ws] send %s to client=%s failed: %v", evt.Type, c.id, err)
			continue
		}
		sent++
	}
	return sent
}

// PushToSession sends n to the connections of one session.
func (h *Hub) PushToSession(sessionID string, n Notification) int {
	return h.broadcast(h.matching(func(c *client) bool { return c.sessionID == sessionID }),
		wsEvent{Type: EventNotificationNew, Data: n})
}

// CloseSession tells the session's connections that it ended and closes
// them. It matches session.CloseFunc.
func (h *Hub) CloseSession(sessionID, reason string) {
	targets := h.matching(func(c *client) bool { return c.sessionID == sessionID })
	if len(targets) == 0 {
		return
	}
	h.broadcast(targets, wsEvent{Type: EventSessionClosed, Data: map[string]string{"reason": reason}})
	for _, c := range targets {
		h.unregister(c)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	}
	log.Printf("[ws] session closed reason=%s connections=%d", reason, len(targets))
}

// Connections reports how many sockets are open.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
