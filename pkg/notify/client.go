package notify

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Subscriber commands.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionPing        = "ping"
)

// Command is a message sent by a subscriber.
type Command struct {
	Action        string `json:"action"`
	TransactionID string `json:"transactionId,omitempty"`
	Address       string `json:"address,omitempty"`
}

// Ack answers a subscriber command.
type Ack struct {
	Type   string   `json:"type"`
	Action string   `json:"action"`
	Rooms  []string `json:"rooms,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// client is one WebSocket subscriber. rooms is guarded by the hub's mutex.
type client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]struct{}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("Websocket subscriber closed unexpectedly", zap.Error(err))
			}
			return
		}
		c.handle(data)
	}
}

func (c *client) handle(data []byte) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.reply(Ack{Type: "error", Error: "invalid command"})
		return
	}

	var targets []string
	if cmd.TransactionID != "" {
		targets = append(targets, TransactionRoom(cmd.TransactionID))
	}
	if cmd.Address != "" {
		targets = append(targets, AddressRoom(cmd.Address))
	}

	switch cmd.Action {
	case ActionPing:
		c.reply(Ack{Type: "pong", Action: cmd.Action})
		return
	case ActionSubscribe:
		for _, room := range targets {
			c.hub.join(c, room)
		}
	case ActionUnsubscribe:
		for _, room := range targets {
			c.hub.leave(c, room)
		}
	default:
		c.reply(Ack{Type: "error", Action: cmd.Action, Error: "unknown action"})
		return
	}
	if len(targets) == 0 {
		c.reply(Ack{Type: "error", Action: cmd.Action, Error: "transactionId or address is required"})
		return
	}
	c.reply(Ack{Type: "ack", Action: cmd.Action, Rooms: targets})
}

// reply queues a direct answer; it is dropped if the subscriber is gone or saturated.
func (c *client) reply(ack Ack) {
	data, err := json.Marshal(ack)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
