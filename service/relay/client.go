package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"relaygate/logger"
)

// Client is one live session on the relay. The websocket connection is
// owned by the transport layer; the relay only reacts to its accept and
// disconnect notifications.
//
// Send is intentionally never closed: frames are enqueued by arbitrary
// sessions' read loops, and closing under concurrent senders panics.
// done signals the writer pump to stop instead.
type Client struct {
	ConnID string

	ws   *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	userID string // empty while the session is anonymous

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(ws *websocket.Conn, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Client{
		ConnID: uuid.NewString(),
		ws:     ws,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
	}
}

// UserID returns the identity the session joined with, or "" while the
// session is anonymous.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) identify(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

func (c *Client) anonymize() {
	c.mu.Lock()
	c.userID = ""
	c.mu.Unlock()
}

// enqueue hands a frame to the writer pump without blocking. A full
// queue means this client is too slow; the frame is dropped for this
// client only and the caller counts it.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close is idempotent; both the read loop and the writer pump call it
// on their way out.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump drains the send queue onto the wire and keeps the
// connection alive with periodic pings. Single writer per connection;
// gorilla/websocket forbids concurrent writes.
func (c *Client) writePump(pingInterval, writeWait time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debugf("[relay] write err conn=%s user=%s err=%v", c.ConnID, c.UserID(), err)
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Debugf("[relay] ping err conn=%s user=%s err=%v", c.ConnID, c.UserID(), err)
				return
			}
		}
	}
}
