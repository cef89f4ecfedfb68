// Package handler wires the HTTP surface to the chat hub.
package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/johndosdos/livechat/internal/chat"
)

// RateLimits configures the per-session event limiters applied to each
// accepted connection.
type RateLimits struct {
	Messages     int
	MessageWin   time.Duration
	TypingEvents int
	TypingWin    time.Duration
}

// ServeWs handles the client's websocket connection upgrade.
func ServeWs(h *chat.Hub, limits RateLimits) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Printf("failed to accept websocket connection: %v", err)
			return
		}

		// We'll register our new client to the central hub. The hub
		// replies with the "connected" greeting; the username arrives
		// later in a join event.
		c := chat.NewClient(conn, h.Options().SendQueue)
		if limits.Messages > 0 {
			c.SetMessageLimiter(limits.Messages, limits.MessageWin)
		}
		if limits.TypingEvents > 0 {
			c.SetTypingLimiter(limits.TypingEvents, limits.TypingWin)
		}

		reg := chat.Registration{
			Client: c,
			Done:   make(chan struct{}),
		}
		h.Register <- reg

		// Wait for registration to complete
		<-reg.Done

		// We block on c.ReadPump() because the request context will be
		// canceled as soon as we return from the ServeWs() handler.
		go c.WritePump(ctx)
		c.ReadPump(ctx)
	}
}
