package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event types pushed to subscribed clients.
const (
	EventMatchUpdated    = "MATCH_UPDATED"
	EventBracketAdvanced = "BRACKET_ADVANCED"
)

type Event struct {
	Type    string      `json:"type"`
	RoomID  string      `json:"roomId,omitempty"`
	Payload interface{} `json:"payload"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is one websocket connection subscribed to a single tournament room.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string

	mu     sync.Mutex
	closed bool
}

// Hub tracks tournament rooms and fans events out to their clients. One
// goroutine runs the register/unregister loop; broadcasts take the room lock
// directly.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.logger.Debug("websocket client joined",
				slog.String("room", client.room),
				slog.Int("room_size", len(h.rooms[client.room])),
			)
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.room]; ok {
				if _, okClient := room[client]; okClient {
					client.close()
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Subscribe attaches an accepted websocket connection to a tournament room
// and starts its read/write pumps.
func (h *Hub) Subscribe(conn *websocket.Conn, tournamentID uuid.UUID) {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 16),
		room: tournamentID.String(),
	}
	h.register <- client
	go client.writePump()
	go client.readPump()
}

func (h *Hub) broadcast(tournamentID uuid.UUID, event Event) {
	event.RoomID = tournamentID.String()
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal websocket event",
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[event.RoomID] {
		client.mu.Lock()
		if !client.closed {
			select {
			case client.send <- payload:
			default:
				// Slow consumer; drop the event rather than block the caller.
			}
		}
		client.mu.Unlock()
	}
}

func (h *Hub) PublishMatchUpdated(tournamentID uuid.UUID, match *models.Match) {
	h.broadcast(tournamentID, Event{Type: EventMatchUpdated, Payload: match})
}

func (h *Hub) PublishBracketAdvanced(tournamentID uuid.UUID, matches []*models.Match) {
	h.broadcast(tournamentID, Event{Type: EventBracketAdvanced, Payload: matches})
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients only listen; inbound frames are drained to keep the connection
	// and pong handling alive.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
