// Package websocket adapts a gorilla websocket into a broadcast hub
// connection.
package websocket

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thunderavi/scoreboard/api/feed"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is public read-only; cross-origin viewers are expected.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Conn is one upgraded websocket. Frame and heartbeat writes are
// serialized through the write mutex.
type Conn struct {
	mu     sync.Mutex
	ws     *websocket.Conn
	closed atomic.Bool
}

// Upgrade switches the HTTP request to the websocket protocol.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade websocket: %w", err)
	}
	return &Conn{ws: ws}, nil
}

// WriteFrame sends the frame as one JSON text message.
func (c *Conn) WriteFrame(frame feed.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return fmt.Errorf("connection closed")
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(frame); err != nil {
		c.closed.Store(true)
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// WriteHeartbeat sends a ping control message.
func (c *Conn) WriteHeartbeat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return fmt.Errorf("connection closed")
	}
	if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
		c.closed.Store(true)
		return fmt.Errorf("write ping: %w", err)
	}
	return nil
}

// Closed reports whether the connection is unusable.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// Close tears the socket down.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.ws.Close()
}

// ReadLoop drains inbound messages until the peer disconnects. Inbound
// payloads are ignored; the loop exists to surface closes and answer
// pings. It blocks, so run it from the handler goroutine.
func (c *Conn) ReadLoop() {
	defer c.closed.Store(true)
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
