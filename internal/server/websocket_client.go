package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WebSocketClient wraps a play-channel connection carrying JSON messages.
type WebSocketClient struct {
	id        string
	vampireID int64
	conn      *websocket.Conn
	mu        sync.Mutex // serializes writes
}

// NewWebSocketClient wraps conn for the given vampire. Incoming messages
// larger than maxMessageSize close the connection.
func NewWebSocketClient(conn *websocket.Conn, vampireID int64, maxMessageSize int64) *WebSocketClient {
	if maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}
	return &WebSocketClient{
		id:        uuid.NewString(),
		vampireID: vampireID,
		conn:      conn,
	}
}

// ID returns the connection id used in logs.
func (c *WebSocketClient) ID() string {
	return c.id
}

// VampireID returns the vampire this connection plays.
func (c *WebSocketClient) VampireID() int64 {
	return c.vampireID
}

// errMalformedMessage is returned by ReadMessage for frames that are not a
// JSON object. The connection stays usable.
type errMalformedMessage struct {
	err error
}

func (e errMalformedMessage) Error() string {
	return fmt.Sprintf("malformed message: %v", e.err)
}

func (e errMalformedMessage) Unwrap() error {
	return errBadRequest
}

// ReadMessage blocks until the next non-blank message arrives and decodes
// it into v.
func (c *WebSocketClient) ReadMessage(v any) error {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}

		message = bytes.TrimSpace(message)
		if len(message) == 0 {
			continue
		}

		if err := json.Unmarshal(message, v); err != nil {
			return errMalformedMessage{err: err}
		}
		return nil
	}
}

// WriteJSON sends v as a single text message.
func (c *WebSocketClient) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Close closes the WebSocket connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
