package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/types"
	"github.com/okian/cragrank/pkg/logger"
	"github.com/okian/cragrank/pkg/metrics"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	defaultPingPeriod = 30 * time.Second
	defaultSendBuffer = 64

	// EventRankingsUpdate tags every pushed message.
	EventRankingsUpdate = "rankingsUpdate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Scoreboards are served from other origins; apply CORS at the proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Update is the JSON envelope sent to clients.
type Update struct {
	Event    string            `json:"event"`
	Room     string            `json:"room"`
	Rankings any               `json:"rankings"`
	Diff     []types.DiffEntry `json:"diff"`
}

// InitialState returns the current rankings of a room, or false when the
// room has none yet.
type InitialState func(ctx context.Context, room string) (any, bool)

// GroupRoom names the room of a group ranking.
func GroupRoom(id model.GroupID) string { return fmt.Sprintf("group:%d", id) }

// RoundRoom names the room of a round ranking.
func RoundRoom(id model.RoundID) string { return fmt.Sprintf("round:%d", id) }

// CompetitionRoom names the room of an overall category ranking.
func CompetitionRoom(id model.CompetitionID, category model.Category) string {
	return fmt.Sprintf("competition:%d:%s", id, category.Key())
}

// Hub tracks subscribers per room and fans updates out to them.
type Hub struct {
	pingPeriod time.Duration
	sendBuffer int
	initial    InitialState
	log        logger.Logger

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

type client struct {
	room string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		pingPeriod: defaultPingPeriod,
		sendBuffer: defaultSendBuffer,
		log:        logger.Discard(),
		rooms:      make(map[string]map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run blocks until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// ServeHTTP upgrades the connection and subscribes it to the room named by
// the room query parameter. It blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if _, err := ParseRoom(room); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{room: room, conn: conn, send: make(chan []byte, h.sendBuffer)}
	if h.initial != nil {
		if rankings, ok := h.initial(r.Context(), room); ok {
			if data, err := json.Marshal(Update{Event: EventRankingsUpdate, Room: room, Rankings: rankings, Diff: []types.DiffEntry{}}); err == nil {
				c.send <- data
			}
		}
	}
	h.register(c)
	defer h.unregister(c)
	h.log.Debug(r.Context(), "subscriber joined", logger.String("room", room))

	go c.writePump(h.pingPeriod)
	c.readPump(h.pingPeriod * 10 / 9)
}

// Publish sends an update to every subscriber of room. Subscribers that
// cannot keep up are disconnected.
func (h *Hub) Publish(ctx context.Context, room string, rankings any, diff []types.DiffEntry) error {
	if diff == nil {
		diff = []types.DiffEntry{}
	}
	data, err := json.Marshal(Update{Event: EventRankingsUpdate, Room: room, Rankings: rankings, Diff: diff})
	if err != nil {
		return fmt.Errorf("encode %s update: %w", room, err)
	}

	// Sends happen under the read lock so they never race close(c.send),
	// which only runs under the write lock.
	var slow []*client
	h.mu.RLock()
	for c := range h.rooms[room] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn(ctx, "dropping slow subscriber", logger.String("room", room))
		metrics.RecordWSDroppedClient()
		h.unregister(c)
	}
	metrics.RecordWSMessage()
	return nil
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.rooms {
		n += len(clients)
	}
	return n
}

// RoomCount returns the number of clients subscribed to room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	clients, ok := h.rooms[c.room]
	if !ok {
		clients = make(map[*client]struct{})
		h.rooms[c.room] = clients
	}
	clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.UpdateWSClients(h.Count())
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if clients, ok := h.rooms[c.room]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
		}
		if len(clients) == 0 {
			delete(h.rooms, c.room)
		}
	}
	h.mu.Unlock()
	metrics.UpdateWSClients(h.Count())
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for room, clients := range h.rooms {
		for c := range clients {
			close(c.send)
		}
		delete(h.rooms, room)
	}
	h.mu.Unlock()
	metrics.UpdateWSClients(0)
}

// writePump forwards queued messages and sends periodic pings.
func (c *client) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles control frames and detects disconnects.
func (c *client) readPump(pongWait time.Duration) {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Room kinds.
const (
	RoomGroup       = "group"
	RoomRound       = "round"
	RoomCompetition = "competition"
)

// Room is a parsed room name.
type Room struct {
	Kind string
	ID   int64
	// Category is only set for competition rooms.
	Category model.Category
}

// ParseRoom parses a room name built by GroupRoom, RoundRoom or CompetitionRoom.
func ParseRoom(name string) (Room, error) {
	parts := strings.Split(name, ":")
	if len(parts) < 2 {
		return Room{}, fmt.Errorf("room %q: %w", name, ErrInvalidRoom)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return Room{}, fmt.Errorf("room %q: %w", name, ErrInvalidRoom)
	}

	switch {
	case parts[0] == RoomGroup && len(parts) == 2, parts[0] == RoomRound && len(parts) == 2:
		return Room{Kind: parts[0], ID: id}, nil
	case parts[0] == RoomCompetition && len(parts) == 4 && parts[2] != "" && parts[3] != "":
		return Room{Kind: RoomCompetition, ID: id, Category: model.Category{Name: parts[2], Sex: model.Sex(parts[3])}}, nil
	default:
		return Room{}, fmt.Errorf("room %q: %w", name, ErrInvalidRoom)
	}
}
