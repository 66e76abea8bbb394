// Package relayclient is the client-side counterpart of the relay
// protocol. One Client holds one persistent session for the lifetime
// of the consuming view: it emits join/message/leave and receives
// inbound message events asynchronously.
package relayclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"relaygate/logger"
	"relaygate/service/relay"
	"relaygate/tools/safe"
)

var ErrNotConnected = errors.New("relayclient: not connected")

const writeWait = 10 * time.Second

// MessageHandler receives the verbatim data payload of every inbound
// message event. It runs on the read goroutine; do not block in it.
type MessageHandler func(data json.RawMessage)

type Option func(*Client)

// WithMessageHandler registers the inbound message callback. Must be
// set before Connect to not miss early frames.
func WithMessageHandler(h MessageHandler) Option {
	return func(c *Client) { c.handler = h }
}

// WithDialer overrides the websocket dialer (timeouts, proxies, tests).
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithoutReconnect disables the automatic reconnect loop; a dropped
// transport then ends the session for good.
func WithoutReconnect() Option {
	return func(c *Client) { c.reconnectOff = true }
}

// Client maintains exactly one session to the relay server. It is safe
// for concurrent use. After any reconnect it re-issues join for the
// identity it last joined with, since the server holds no durable
// identity across a dropped transport.
type Client struct {
	url          string
	dialer       *websocket.Dialer
	handler      MessageHandler
	reconnectOff bool

	mu     sync.Mutex
	conn   *websocket.Conn
	userID string

	done      chan struct{}
	closeOnce sync.Once
}

func New(url string, opts ...Option) *Client {
	c := &Client{
		url:    url,
		dialer: websocket.DefaultDialer,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the relay and starts the read loop. A failed first
// dial is returned to the caller; later drops are handled by the
// reconnect loop.
func (c *Client) Connect(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			return errors.Wrapf(err, "dial %s (status %s)", c.url, resp.Status)
		}
		return errors.Wrapf(err, "dial %s", c.url)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	safe.Go("relayclient-reader", c.readLoop)
	return nil
}

// Join registers this session under userID. The identity is remembered
// for re-join after reconnects.
func (c *Client) Join(userID string) error {
	if userID == "" {
		return errors.New("relayclient: empty userID")
	}
	f, err := relay.BuildFrame(relay.EventJoin, relay.JoinPayload{UserID: userID})
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
	return c.writeFrame(f)
}

// Send emits one message event. The payload must carry a receiverId
// field for the relay to forward it; everything else passes through
// untouched. The sender always gets the payload echoed back.
func (c *Client) Send(payload any) error {
	f, err := relay.BuildFrame(relay.EventMessage, payload)
	if err != nil {
		return err
	}
	return c.writeFrame(f)
}

// Leave deregisters the current identity. The session stays open.
func (c *Client) Leave() error {
	c.mu.Lock()
	user := c.userID
	c.userID = ""
	c.mu.Unlock()
	if user == "" {
		return nil
	}
	f, err := relay.BuildFrame(relay.EventLeave, relay.LeavePayload{UserID: user})
	if err != nil {
		return err
	}
	return c.writeFrame(f)
}

// Close tears the session down and stops the reconnect loop.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()
		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			err = conn.Close()
		}
	})
	return err
}

func (c *Client) writeFrame(f *relay.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return errors.Wrap(c.conn.WriteMessage(websocket.TextMessage, f.Raw()), "write frame")
}

func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			if c.reconnectOff || !c.reconnect() {
				return
			}
			continue
		}

		f, perr := relay.ParseFrame(data)
		if perr != nil {
			logger.Debugf("[relayclient] bad frame: %v", perr)
			continue
		}
		if f.Event == relay.EventMessage && c.handler != nil {
			c.handler(f.Data)
		}
	}
}

// reconnect dials with exponential backoff until it succeeds or the
// client is closed, then re-issues join for the remembered identity.
func (c *Client) reconnect() bool {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0 // retry until Close

	for {
		select {
		case <-c.done:
			return false
		default:
		}

		conn, _, err := c.dialer.Dial(c.url, nil)
		if err != nil {
			wait := bo.NextBackOff()
			logger.Debugf("[relayclient] redial failed, next attempt in %s: %v", wait, err)
			select {
			case <-c.done:
				return false
			case <-time.After(wait):
			}
			continue
		}

		c.mu.Lock()
		// Close may have run between the dial and here; the fresh
		// conn must not outlive the client.
		select {
		case <-c.done:
			c.mu.Unlock()
			_ = conn.Close()
			return false
		default:
		}
		c.conn = conn
		user := c.userID
		c.mu.Unlock()

		if user != "" {
			if err := c.Join(user); err != nil {
				logger.Warnf("[relayclient] rejoin user=%s failed: %v", user, err)
			}
		}
		logger.Infof("[relayclient] reconnected to %s", c.url)
		return true
	}
}
