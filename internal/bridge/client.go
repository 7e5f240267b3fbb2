package bridge

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Client represents a single connected WebSocket client.
type Client struct {
	// ID is the connection id, assigned at accept time.
	ID string

	conn   *websocket.Conn
	send   chan []byte
	mu     sync.RWMutex
	closed bool
}

// SendMessage queues a message for delivery to the client. The send is
// non-blocking: if the client's buffer is full the message is dropped, since
// a lagging client must not stall delivery to anyone else.
func (c *Client) SendMessage(msg []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	select {
	case c.send <- msg:
	default:
		slog.Warn("Client send channel full, dropping message", "connectionID", c.ID)
	}
}

// Close closes the client's send channel, terminating its writePump. The
// channel field is never reset to nil: a pump that ranges over it must see
// the closed channel and return, no matter when it was scheduled relative to
// teardown. Close is idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
