package ws

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"text-hub/contract"
	"text-hub/domain/event"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second    // Time allowed to write a frame to the peer
	pongWait     = 60 * time.Second    // Time allowed to read the next pong from the peer
	pingPeriod   = (pongWait * 9) / 10 // Must be less than pongWait
	maxFrameSize = 1024
)

// Actions a connected client may send.
const (
	actionJoin  = "join"
	actionLeave = "leave"
)

type inboundFrame struct {
	Action  string    `json:"action"`
	GroupID uuid.UUID `json:"groupId"`
}

type outboundFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Client is one live websocket connection. It is both the subscriber the
// registry knows by connection id and the EventSink the dispatcher
// delivers to: Consume hands events to the write pump through a buffered
// channel, so a slow socket only ever stalls its own delivery attempt.
type Client struct {
	id       string
	log      *slog.Logger
	conn     *websocket.Conn
	registry contract.IRegistry
	events   chan event.BroadcastEvent
	done     chan struct{}
}

func NewClient(log *slog.Logger, conn *websocket.Conn, registry contract.IRegistry, bufferSize int) *Client {
	return &Client{
		id:       uuid.NewString(),
		log:      log,
		conn:     conn,
		registry: registry,
		events:   make(chan event.BroadcastEvent, bufferSize),
		done:     make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Consume is called by the dispatcher fan-out. When the connection
// buffer is full the send blocks until the delivery context expires,
// which surfaces as a per-member delivery failure on the dispatcher
// side and never stalls other members.
func (c *Client) Consume(ctx context.Context, e event.BroadcastEvent) error {
	select {
	case c.events <- e:
		return nil
	case <-c.done:
		return fmt.Errorf("connection %s closed", c.id)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadPump consumes join/leave frames until the socket dies, then
// removes every subscription of this connection.
func (c *Client) ReadPump() {
	defer func() {
		c.registry.OnConnectionClosed(c.id)
		close(c.done)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame inboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("websocket read failed", "connection_id", c.id, "error", err)
			}
			return
		}
		switch frame.Action {
		case actionJoin:
			c.registry.Join(c.id, frame.GroupID, c)
			c.log.Debug("connection joined group", "connection_id", c.id, "group_id", frame.GroupID)
		case actionLeave:
			c.registry.Leave(c.id, frame.GroupID)
			c.log.Debug("connection left group", "connection_id", c.id, "group_id", frame.GroupID)
		default:
			c.log.Debug("ignoring unknown action", "connection_id", c.id, "action", frame.Action)
		}
	}
}

// WritePump pushes broadcast events to the peer and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case e := <-c.events:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(toFrame(e)); err != nil {
				c.log.Warn("websocket write failed", "connection_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func toFrame(e event.BroadcastEvent) outboundFrame {
	switch evt := e.(type) {
	case event.MessageCreated:
		return outboundFrame{Event: e.Name(), Payload: evt.Message}
	case event.MessagesUpdated:
		return outboundFrame{Event: e.Name(), Payload: evt.Messages}
	case event.MessagesDeleted:
		return outboundFrame{Event: e.Name(), Payload: evt.Messages}
	default:
		return outboundFrame{Event: e.Name()}
	}
}
