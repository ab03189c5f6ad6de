package push

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	readLimit  = 512
)

type deadlineConn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// readPump only watches for the peer closing; clients never send commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopped:
		}
		c.conn.Close()
	}()

	if dc, ok := c.conn.(deadlineConn); ok {
		dc.SetReadLimit(readLimit)
		dc.SetReadDeadline(time.Now().Add(pongWait))
		dc.SetPongHandler(func(string) error {
			return dc.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	dc, _ := c.conn.(deadlineConn)

	for {
		select {
		case data, ok := <-c.send:
			if dc != nil {
				dc.SetWriteDeadline(time.Now().Add(writeWait))
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if dc != nil {
				dc.SetWriteDeadline(time.Now().Add(writeWait))
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
