package realtime

import (
	"time"

	"github.com/gorilla/websocket"
)

// Client is one connected device. Devices never push application data over
// the socket; reads exist only to service pings and detect disconnects.
type Client struct {
	ID       string
	DeviceID string
	Tenant   string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan []byte
}

func NewClient(id, deviceID, tenant string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:       id,
		DeviceID: deviceID,
		Tenant:   tenant,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan []byte, 16),
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Debug().Err(err).Str("client", c.ID).Msg("websocket read error")
			}
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Hub.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
