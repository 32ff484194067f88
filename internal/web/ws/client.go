package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/bullcow/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one player's WebSocket connection. It implements model.Conn.
type Client struct {
	playerID model.PlayerID
	conn     *websocket.Conn
	send     chan []byte
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Ensure Client implements model.Conn
var _ model.Conn = (*Client)(nil)

// NewClient wraps an upgraded connection
func NewClient(playerID model.PlayerID, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		logger:   logger.With(slog.String("player_id", string(playerID))),
		done:     make(chan struct{}),
	}
}

// Send encodes the event and queues it without blocking.
// Events are dropped when the buffer is full or the client is closed.
func (c *Client) Send(event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()),
		)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("ws message dropped - client buffer full", slog.String("type", string(event.Type)))
	}
}

// Close stops the write pump, which closes the socket
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// Done is closed once the client has been closed
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// readPump decodes inbound frames until the socket fails, then calls
// onClose exactly once
func (c *Client) readPump(onMessage func(model.Envelope), onClose func()) {
	defer func() {
		onClose()
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", slog.String("error", err.Error()))
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("ws read error", slog.String("error", err.Error()))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var env model.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Debug("ignoring malformed frame", slog.String("error", err.Error()))
			continue
		}
		onMessage(env)
	}
}

// writePump drains the send buffer and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				c.logger.Debug("ws write failed", slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.flush()
			deadline := time.Now().Add(time.Second)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

// flush writes whatever was queued before the client was closed
func (c *Client) flush() {
	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	}
	return nil
}
