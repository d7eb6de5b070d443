package websocket

import (
	"context"
	"fmt"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one user's change feed connection. The feed is one way: frames
// sent by the peer are discarded.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	userID string
	send   chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Serve registers the client and forwards queued changes to the peer until
// the peer goes away, ctx ends or the hub drops the client. A nil error means
// the hub closed the feed.
func (c *Client) Serve(ctx context.Context) error {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	// CloseRead keeps reading control frames so pings get their pongs, and
	// cancels ctx once the peer closes.
	ctx = c.conn.CloseRead(ctx)

	keepalive := time.NewTicker(pingInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-c.send:
			if !ok {
				return nil
			}
			if err := c.deliver(ctx, msg); err != nil {
				return fmt.Errorf("deliver to %s: %w", c.userID, err)
			}
		case <-keepalive.C:
			if err := c.ping(ctx); err != nil {
				return fmt.Errorf("ping %s: %w", c.userID, err)
			}
		}
	}
}

func (c *Client) deliver(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}

func (c *Client) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Ping(ctx)
}
