package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	readLimit    = 65536
	sendBuffer   = 32
)

// MessageHandler receives inbound messages from one client's read loop.
type MessageHandler interface {
	HandleMessage(c *Client, msg Message)
	HandleDisconnect(c *Client)
}

// Client is a single websocket connection: either a display kiosk (bound
// to a hostname once its connect message arrives) or an admin viewer.
type Client struct {
	id       string
	hostname string
	addr     string

	hub     *Hub
	conn    *websocket.Conn
	handler MessageHandler

	send      chan Message
	closeOnce sync.Once
}

func NewClient(h *Hub, conn *websocket.Conn, addr string, handler MessageHandler) *Client {
	return &Client{
		id:      uuid.NewString(),
		addr:    addr,
		hub:     h,
		conn:    conn,
		handler: handler,
		send:    make(chan Message, sendBuffer),
	}
}

// Hostname returns the display hostname, empty until the connect message
// has registered this client.
func (c *Client) Hostname() string { return c.hostname }

// Addr returns the remote address the connection came from.
func (c *Client) Addr() string { return c.addr }

// Close tears the connection down; the pumps unwind on their own.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// trySend queues a message without blocking. A kiosk that stopped reading
// gets skipped; it re-pulls state when it comes back.
func (c *Client) trySend(msg Message) {
	defer func() {
		// send channel may close concurrently with a broadcast
		_ = recover()
	}()
	select {
	case c.send <- msg:
	default:
		log.Warn().Str("hostname", c.hostname).Msg("send buffer full, dropping event")
	}
}

// Run starts the write pump and blocks in the read pump until the
// connection drops.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		if c.handler != nil {
			c.handler.HandleDisconnect(c)
		}
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if c.handler != nil {
			c.handler.HandleMessage(c, msg)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Str("hostname", c.hostname).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
