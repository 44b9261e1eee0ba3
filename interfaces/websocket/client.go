package websocket

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"venturelink/domain/core/valueobjects"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 64 * 1024

	sendBufferSize = 256
)

// Client is one live channel connection. userID is zero for anonymous connections.
type Client struct {
	id     string
	userID valueobjects.UserID
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

// NewClient wraps an upgraded connection
func NewClient(userID valueobjects.UserID, hub *Hub, conn *websocket.Conn, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:     id,
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger.With(
			zap.Int64("userID", userID.Int64()),
			zap.String("connectionID", id),
		),
	}
}

// Start registers the client and runs its pumps
func (c *Client) Start() {
	if !c.hub.enqueueRegister(c) {
		c.close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// ID returns the connection ID
func (c *Client) ID() string { return c.id }

// UserID returns the authenticated user, or zero
func (c *Client) UserID() valueobjects.UserID { return c.userID }

// enqueue never blocks; false means the buffer is full or the client is closed
func (c *Client) enqueue(frame []byte) bool {
	if c.closed() {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// close stops the write pump and drops the socket, which ends the read pump
// and with it the registration
func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.enqueueUnregister(c)
		c.close()
		c.logger.Debug("Read pump stopped")
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.logger.Debug("Dropping non-text frame", zap.Int("messageType", messageType))
			continue
		}
		c.handleTextFrame(frame)
	}
}

func (c *Client) handleTextFrame(frame []byte) {
	frame = bytes.TrimSpace(frame)
	if !json.Valid(frame) {
		c.logger.Debug("Dropping frame that is not JSON", zap.Int("size", len(frame)))
		return
	}

	delivered, dropped := c.hub.Relay(c, frame)
	c.logger.Debug("Relayed client frame",
		zap.Int("delivered", delivered),
		zap.Int("dropped", dropped),
	)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("Failed to write frame", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
