package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
)

// Client is one websocket session. It may exist before a join binds it
// to a user; until then UserID is empty and only transport frames flow.
type Client struct {
	ConnID    string
	CreatedAt time.Time

	ws   *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	userID string

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an upgraded connection. ws may be nil in tests that
// only exercise the queue.
func NewClient(connID string, ws *websocket.Conn, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Client{
		ConnID:    connID,
		CreatedAt: time.Now(),
		ws:        ws,
		send:      make(chan []byte, queueSize),
		done:      make(chan struct{}),
	}
}

func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) setUserID(id string) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

// Enqueue hands a payload to the write pump without blocking. A full
// queue means the session is too slow to keep; the frame is dropped
// and the caller may decide to close.
func (c *Client) Enqueue(payload []byte) bool {
	if payload == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		logger.Warnf("session %s send queue full, dropping frame", c.ConnID)
		return false
	}
}

// Close tears the session down once. The write pump notices done and
// closes the socket.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) Done() <-chan struct{} { return c.done }

// WritePump drains the send queue onto the socket and keeps the
// connection alive with pings. Runs as the only writer goroutine.
func (c *Client) WritePump(pingEvery, writeWait time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		if c.ws != nil {
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			_ = c.ws.Close()
		}
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if c.ws == nil {
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debugf("session %s write: %v", c.ConnID, err)
				c.Close()
				return
			}
		case <-ticker.C:
			if c.ws == nil {
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
