package ws

import (
	websocketdto "transit-mapper/internal/survey-service/core/domain/websocket_dto"

	"github.com/gorilla/websocket"
)

// Client lives as long as its connection, not the upgrade request:
// the request context is cancelled the moment the handler returns.
// done is closed exactly once, by the dispatcher on removal.
type Client struct {
	conn   *websocket.Conn
	dis    *Dispatcher
	egress chan websocketdto.Event
	done   chan struct{}
	tripId string
}

func NewClient(conn *websocket.Conn, dis *Dispatcher, tripId string) *Client {
	return &Client{
		conn:   conn,
		dis:    dis,
		egress: make(chan websocketdto.Event, 16),
		done:   make(chan struct{}),
		tripId: tripId,
	}
}

// ReadMessage drains the connection. The feed is one-way, so inbound
// payloads are discarded; the read loop only exists to notice closes.
func (c *Client) ReadMessage() {
	defer c.dis.RemoveClient(c)

	c.conn.SetReadLimit(1024)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.dis.log.Action("wsRead").Warn("unexpected ws close")
			}
			break
		}
	}
}

func (c *Client) WriteMessage() {
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.egress:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.dis.RemoveClient(c)
				return
			}
		}
	}
}
