package live

import (
	"sync/atomic"
	"time"

	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

// Client is one WebSocket subscriber
type Client struct {
	*models.LiveSession
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
	lastSeen atomic.Int64
}

func newClient(hub *Hub, conn *websocket.Conn, session *models.LiveSession) *Client {
	c := &Client{
		LiveSession: session,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		hub:         hub,
	}
	c.touch()
	return c
}

func (c *Client) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

func (c *Client) LastActive() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

// ReadPump only services control frames; clients have nothing to say
// beyond staying connected.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touch()
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).WithField("session", c.ID).Debug("WebSocket read error")
			}
			return
		}
		c.touch()
	}
}

// WritePump writes one JSON frame per message and pings the client
func (c *Client) WritePump() {
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
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
