package http

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// outboundMessage is the wire envelope for everything the server sends.
type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client is one WebSocket connection with a buffered send queue. A single
// writer goroutine drains the queue so the gorilla connection never sees
// concurrent writes.
type client struct {
	id   string
	conn *websocket.Conn
	send chan outboundMessage
}

func newClient(id string, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan outboundMessage, 32),
	}
}

// Hub tracks connections and session rooms and implements game.Broadcaster.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*client
	rooms  map[string]map[string]*client // session code -> conn id -> client
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*client),
		rooms:  make(map[string]map[string]*client),
		logger: logger,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
	for code, room := range h.rooms {
		delete(room, id)
		if len(room) == 0 {
			delete(h.rooms, code)
		}
	}
}

// AddToRoom subscribes a connection to a session's broadcasts.
func (h *Hub) AddToRoom(code, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[id]
	if !ok {
		return
	}
	room, ok := h.rooms[code]
	if !ok {
		room = make(map[string]*client)
		h.rooms[code] = room
	}
	room[id] = c
}

// RemoveFromRoom unsubscribes a connection from a session's broadcasts.
func (h *Hub) RemoveFromRoom(code, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[code]; ok {
		delete(room, id)
		if len(room) == 0 {
			delete(h.rooms, code)
		}
	}
}

// EmitToSession delivers an event to every connection in a session's room.
func (h *Hub) EmitToSession(code, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[code] {
		h.trySend(c, outboundMessage{Type: event, Payload: payload})
	}
}

// EmitToConnection delivers an event to a single connection. The send
// happens under the lock so unregister + channel close cannot interleave
// with it.
func (h *Hub) EmitToConnection(id, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.conns[id]; ok {
		h.trySend(c, outboundMessage{Type: event, Payload: payload})
	}
}

// trySend drops the message when the client's queue is full; a slow reader
// must not block session processing.
func (h *Hub) trySend(c *client, msg outboundMessage) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("dropping message for slow client",
			zap.String("connId", c.id), zap.String("event", msg.Type))
	}
}
