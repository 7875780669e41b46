package ws

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"campus-connect/internal/models"
	"campus-connect/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one live websocket connection with its outbound queue.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	info      ConnInfo
	closeOnce sync.Once
}

// NewClient wraps conn. buffer bounds the outbound queue; events beyond it
// are dropped.
func NewClient(conn *websocket.Conn, info ConnInfo, buffer int) *Client {
	if buffer <= 0 {
		buffer = 1
	}
	return &Client{conn: conn, send: make(chan []byte, buffer), info: info}
}

// Info returns the connection metadata.
func (c *Client) Info() ConnInfo {
	return c.info
}

// Emit queues an event for this client only. It must not be called after
// the client was unregistered.
func (c *Client) Emit(event string, ack *int, data any) bool {
	payload, err := encodeEvent(models.SocketEvent{Event: event, Ack: ack, Data: data})
	if err != nil {
		return false
	}
	return c.enqueue(payload)
}

func (c *Client) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		observability.IncWSEvent("out", "dropped")
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error: %v", err)
				publishConnEvent(context.Background(), c.info, "ws_error", err.Error())
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

// Hub is the presence registry: live clients and the friend rooms they joined.
// Delivery is at-most-once; events are queued under the hub lock so clients
// already in a room see that room's events in broadcast order.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]map[string]struct{}
	rooms   map[string]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]map[string]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Register adds a client to the global broadcast set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = make(map[string]struct{})
		observability.IncWSActive()
	}
}

// Unregister removes a client and all of its room memberships.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms, ok := h.clients[c]
	if !ok {
		return
	}
	for room := range rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.clients, c)
	observability.DecWSActive()
}

// Join adds a registered client to room. Joining twice is a no-op.
func (h *Hub) Join(room string, c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms, ok := h.clients[c]
	if !ok {
		return false
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	rooms[room] = struct{}{}
	return true
}

// Rooms lists the rooms a client has joined.
func (h *Hub) Rooms(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.clients[c]))
	for room := range h.clients[c] {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}

// RoomSize returns the number of clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll sends event to every registered client and returns how many
// accepted it.
func (h *Hub) BroadcastAll(event string, data any) int {
	payload, err := encodeEvent(models.SocketEvent{Event: event, Data: data})
	if err != nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.clients {
		if c.enqueue(payload) {
			delivered++
		}
	}
	observability.IncWSEvent("out", event)
	return delivered
}

// BroadcastRoom sends event to every client in room.
func (h *Hub) BroadcastRoom(room, event string, data any) int {
	return h.BroadcastRoomExcept(room, event, data, nil)
}

// BroadcastRoomExcept sends event to every client in room other than except.
func (h *Hub) BroadcastRoomExcept(room, event string, data any, except *Client) int {
	payload, err := encodeEvent(models.SocketEvent{Event: event, Data: data})
	if err != nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		if c.enqueue(payload) {
			delivered++
		}
	}
	observability.IncWSEvent("out", event)
	return delivered
}

func encodeEvent(event models.SocketEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket encode %s: %v", event.Event, err)
	}
	return payload, err
}
