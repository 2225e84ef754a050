package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"reservations/internal/domain"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

const (
	EventReservationCreated = "reservation_created"
	EventReservationDeleted = "reservation_deleted"
)

// Event is pushed to every client watching the reservation's room.
type Event struct {
	Type        string             `json:"type"`
	RoomID      int64              `json:"room_id"`
	Reservation domain.Reservation `json:"reservation"`
}

// clientMessage is what clients send to change their subscriptions.
type clientMessage struct {
	Type   string `json:"type"`
	RoomID int64  `json:"room_id"`
}

// connection is one websocket client. all is set when the client connected
// without a room filter and is cleared by its first subscribe.
type connection struct {
	conn  *websocket.Conn
	send  chan []byte
	rooms map[int64]bool
	all   bool
}

// Hub fans reservation changes out to websocket clients.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
	upgrader    websocket.Upgrader
}

// NewHub returns a hub accepting upgrades for which checkOrigin reports true.
// A nil checkOrigin accepts every origin.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		connections: make(map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *Hub) ReservationCreated(r domain.Reservation) {
	h.broadcast(&Event{Type: EventReservationCreated, RoomID: r.RoomID, Reservation: r})
}

func (h *Hub) ReservationDeleted(r domain.Reservation) {
	h.broadcast(&Event{Type: EventReservationDeleted, RoomID: r.RoomID, Reservation: r})
}

// ConnectionCount reports how many clients are connected.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.connections {
		delete(h.connections, c)
		close(c.send)
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime_marshal_failed type=%s err=%v", event.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		if !c.all && !c.rooms[event.RoomID] {
			continue
		}
		select {
		case c.send <- data:
		default:
			// slow client, drop
		}
	}
}

// Serve registers conn and runs its read and write loops. It blocks until
// the client disconnects.
func (h *Hub) Serve(conn *websocket.Conn, initialRooms []int64) {
	c := &connection{
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[int64]bool),
		all:   len(initialRooms) == 0,
	}
	for _, id := range initialRooms {
		c.rooms[id] = true
	}

	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var m clientMessage
		if err := json.Unmarshal(msg, &m); err != nil || m.RoomID <= 0 {
			continue
		}

		switch m.Type {
		case "subscribe":
			h.mu.Lock()
			c.all = false
			c.rooms[m.RoomID] = true
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			delete(c.rooms, m.RoomID)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
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
