package transport

import (
	"context"
	"sync"
	"time"

	"codearena/pkg/utils/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long we wait for a pong before the read deadline
	// fires. pingPeriod must stay below it.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1 << 20 // submissions carry source code
	sendBuffer     = 32
)

// Client is one websocket connection. The hub owns registration; the
// client owns its two pump goroutines.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// mu guards send and closed. Every send and the close go through
	// it, so the channel can never be closed mid-send.
	mu     sync.Mutex
	send   chan Envelope
	closed bool

	// set once the join handshake succeeds
	room     string
	playerID string
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan Envelope, sendBuffer),
	}
}

// readLoop pumps inbound envelopes into the hub's dispatcher. On exit the
// client is unregistered and its session membership torn down.
func (c *Client) readLoop(ctx context.Context) {
	defer func() {
		c.hub.disconnect(ctx, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn(ctx, "websocket read failed",
					zap.String("remote", c.conn.RemoteAddr().String()),
					zap.Error(err))
			}
			return
		}
		c.hub.dispatch(ctx, c, env)
	}
}

// writeLoop drains the send channel and keeps the connection alive with
// periodic pings.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue hands an envelope to the write pump. A client too slow to
// drain its buffer is treated as dead and torn down rather than fed a
// gappy event stream.
func (c *Client) enqueue(env Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- env:
	default:
		c.closed = true
		close(c.send)
	}
}

// closeSend shuts the write pump down. Idempotent and safe against
// concurrent enqueues.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
