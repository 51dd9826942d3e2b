// Package notify pushes transaction updates to WebSocket subscribers. Subscribers join
// rooms keyed by transaction id or by user address; a user room receives updates for
// transfers the address sends or receives.
package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/internal/metrics"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridge/status"
	"github.com/scryptex/bridge-middleware/pkg/bridge/transfer"
)

// Event types pushed to subscribers.
const (
	EventInitiated    = "bridge:initiated"
	EventStatusUpdate = "bridge:status_update"
	EventCompleted    = "bridge:completed"
	EventFailed       = "bridge:failed"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

var _ transfer.Notifier = (*Hub)(nil)

// Event is one pushed update.
type Event struct {
	Type        string       `json:"type"`
	Transaction *status.View `json:"transaction"`
	Timestamp   time.Time    `json:"timestamp"`
}

// NewEvent builds the event announcing the current state of tx.
func NewEvent(tx *bridge.Transaction) *Event {
	ev := &Event{Type: EventStatusUpdate, Transaction: status.NewView(tx), Timestamp: time.Now().UTC()}
	switch tx.Status {
	case bridge.StatusPending:
		if tx.UpdatedAt.Equal(tx.CreatedAt) {
			ev.Type = EventInitiated
		}
	case bridge.StatusCompleted:
		ev.Type = EventCompleted
	case bridge.StatusFailed, bridge.StatusExpired:
		ev.Type = EventFailed
	}
	return ev
}

// TransactionRoom is the room receiving updates of one transaction.
func TransactionRoom(id string) string { return "tx:" + id }

// AddressRoom is the room receiving updates of every transfer involving address.
func AddressRoom(address string) string { return "user:" + bridge.NormalizeAddress(address) }

func rooms(tx *bridge.Transaction) []string {
	return []string{
		TransactionRoom(tx.ID),
		AddressRoom(tx.Request.Sender),
		AddressRoom(tx.Request.Recipient),
	}
}

// Hub tracks WebSocket subscribers and fans events out to their rooms.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	rooms   map[string]map[*client]struct{}
	closed  bool
}

// NewHub creates an empty hub. checkOrigin may be nil to accept any origin.
func NewHub(logger *zap.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*client]struct{}),
		rooms:   make(map[string]map[*client]struct{}),
	}
}

// NotifyTransaction delivers the update of tx to this instance's subscribers.
func (h *Hub) NotifyTransaction(tx *bridge.Transaction) {
	h.Deliver(NewEvent(tx))
}

// Deliver pushes ev to every subscriber of a room the transaction belongs to. Subscribers
// that cannot keep up are disconnected.
func (h *Hub) Deliver(ev *Event) {
	if ev == nil || ev.Transaction == nil || ev.Transaction.Transaction == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.Error(err))
		return
	}

	var slow []*client
	sent := make(map[*client]struct{})
	h.mu.RLock()
	for _, room := range rooms(ev.Transaction.Transaction) {
		for c := range h.rooms[room] {
			if _, dup := sent[c]; dup {
				continue
			}
			sent[c] = struct{}{}
			select {
			case c.send <- data:
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow websocket subscriber")
		h.unregister(c)
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves one subscriber. The optional transactionId
// and address query parameters join rooms on connect.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), rooms: make(map[string]struct{})}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	if id := r.URL.Query().Get("transactionId"); id != "" {
		h.join(c, TransactionRoom(id))
	}
	if addr := r.URL.Query().Get("address"); addr != "" {
		h.join(c, AddressRoom(addr))
	}

	go c.writePump()
	c.readPump()
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.WebsocketClients.Inc()
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	close(c.send)
	h.mu.Unlock()

	metrics.WebsocketClients.Dec()
}

func (h *Hub) join(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}
