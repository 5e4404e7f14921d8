package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/codefionn/schnellrechner/internal/calc"
	"github.com/codefionn/schnellrechner/internal/logger"
	"github.com/codefionn/schnellrechner/internal/session"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is one WebSocket keypad with its own calculator session
type Client struct {
	ID        string
	hub       *Hub
	conn      *websocket.Conn
	send      chan *Message
	done      chan struct{}
	closeOnce sync.Once
	session   *session.Session
	log       *logger.Logger
}

// NewClient creates a client bound to conn and sess
func NewClient(hub *Hub, conn *websocket.Conn, sess *session.Session, log *logger.Logger) *Client {
	return &Client{
		ID:      sess.ID,
		hub:     hub,
		conn:    conn,
		send:    make(chan *Message, 64),
		done:    make(chan struct{}),
		session: sess,
		log:     log.WithPrefix("ws:" + sess.ID),
	}
}

// close signals WritePump to send a close frame and stop
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue queues a message without blocking. It reports false when the
// client is closed or its buffer is full.
func (c *Client) enqueue(msg *Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("send buffer full, dropping %s message", msg.Type)
		return false
	}
}

// ReadPump reads keypad messages until the connection fails
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.close()
		c.conn.Close()
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
				c.log.Warn("read error: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("failed to decode message: %v", err)
			c.enqueue(&Message{Type: MessageTypeError, Error: "malformed message", Display: c.session.Display()})
			continue
		}

		c.handleMessage(ctx, &msg)
	}
}

// WritePump writes queued messages and keeps the connection alive
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.log.Warn("write error: %v", err)
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(ctx context.Context, msg *Message) {
	var outcome session.Outcome

	switch msg.Type {
	case MessageTypeKey:
		outcome = c.session.Press(ctx, msg.Key)
	case MessageTypeInput:
		c.pressInput(ctx, msg.Input)
		return
	case MessageTypeBackspace:
		c.session.Backspace()
		outcome.Display = c.session.Display()
	case MessageTypeClear:
		c.session.Clear()
	case MessageTypeReset:
		c.session.Reset()
	default:
		c.log.Warn("unknown message type: %s", msg.Type)
		c.enqueue(&Message{Type: MessageTypeError, Error: "unknown message type " + msg.Type, Display: c.session.Display()})
		return
	}

	c.enqueue(outcomeMessage(outcome))
}

// pressInput replies with every calculation in input, then with the
// display if the last key did not calculate
func (c *Client) pressInput(ctx context.Context, input string) {
	outcomes := c.session.PressEach(ctx, input)
	for _, outcome := range outcomes {
		if outcome.Evaluated {
			c.enqueue(outcomeMessage(outcome))
		}
	}
	if len(outcomes) == 0 || !outcomes[len(outcomes)-1].Evaluated {
		c.enqueue(&Message{Type: MessageTypeDisplay, Display: c.session.Display()})
	}
}

// outcomeMessage converts a session outcome into the reply for the keypad
func outcomeMessage(outcome session.Outcome) *Message {
	if !outcome.Evaluated {
		return &Message{Type: MessageTypeDisplay, Display: outcome.Display}
	}
	if outcome.Err != nil {
		return &Message{
			Type:       MessageTypeError,
			Display:    outcome.Display,
			Expression: outcome.Expression,
			Error:      outcome.Err.Error(),
			Kind:       calc.KindOf(outcome.Err).String(),
		}
	}
	result := outcome.Result
	return &Message{
		Type:       MessageTypeResult,
		Display:    outcome.Display,
		Expression: outcome.Expression,
		Result:     &result,
	}
}
