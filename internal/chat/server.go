package chat

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/coder/websocket"

	"github.com/johndosdos/livechat/internal/model"
)

const writeTimeout = 10 * time.Second

// ReadPump reads the incoming data from the websocket stream and
// routes it to the hub. It returns when the connection drops, funneling
// every close cause through the hub's disconnect path.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.Unregister <- c
		c.conn.CloseNow()
	}()

	for {
		msgType, p, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != -1 {
				log.Printf("read error on session [%s]: %v", c.ID, err)
			}
			return
		}

		// The protocol only speaks JSON text frames.
		if msgType != websocket.MessageText {
			continue
		}

		var ev model.ClientEvent
		if err := json.Unmarshal(p, &ev); err != nil {
			log.Printf("failed to process payload from client [%s]: %v", c.ID, err)
			continue
		}

		select {
		case c.Hub.Inbound <- Inbound{Client: c, Event: ev}:
		case <-ctx.Done():
			return
		}
	}
}

// WritePump drains the session's outbound queue to the websocket
// stream. A closed queue means the hub dropped the session.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "session closed")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Printf("write error on session [%s]: %v", c.ID, err)
				c.conn.CloseNow()
				return
			}

		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "context cancelled")
			return
		}
	}
}
