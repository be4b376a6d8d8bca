package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize allows for camera frames.
	maxMessageSize = 512 * 1024
)

// Client is a single websocket connection subscribed to a hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient registers a new client with the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
	hub.register <- client
	return client
}

// Run starts the client's pumps. It blocks until the connection
// closes, so call it from the websocket handler.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump drains the connection to detect disconnects and receive
// pong responses. Clients are not expected to send anything.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only goroutine that writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			wsType := websocket.TextMessage
			if message.Type == BinaryMessage {
				wsType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(wsType, message.Data); err != nil {
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
