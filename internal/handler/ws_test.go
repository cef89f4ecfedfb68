package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/livechat/internal/chat"
	"github.com/johndosdos/livechat/internal/model"
)

type wireEvent struct {
	Type        string   `json:"type"`
	Username    string   `json:"username"`
	Message     string   `json:"message"`
	Users       []string `json:"users"`
	Count       int      `json:"count"`
	ActiveCount int      `json:"active_count"`
	Messages    []struct {
		Username string `json:"username"`
		Message  string `json:"message"`
	} `json:"messages"`
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.CloseNow()
	})
	return conn
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) wireEvent {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, p, err := conn.Read(readCtx)
	require.NoError(t, err)

	var ev wireEvent
	require.NoError(t, json.Unmarshal(p, &ev))
	return ev
}

func writeEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, ev model.ClientEvent) {
	t.Helper()

	p, err := json.Marshal(ev)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, p))
}

func TestServeWsEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := chat.NewHub(chat.Options{})
	go hub.Run(ctx)

	srv := httptest.NewServer(ServeWs(hub, RateLimits{}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	ana := dial(t, ctx, url)

	ev := readEvent(t, ctx, ana)
	assert.Equal(t, model.EventConnected, ev.Type)

	writeEvent(t, ctx, ana, model.ClientEvent{Type: model.EventJoin, Username: "Ana"})

	ev = readEvent(t, ctx, ana)
	assert.Equal(t, model.EventChatHistory, ev.Type)
	assert.Empty(t, ev.Messages)

	ev = readEvent(t, ctx, ana)
	assert.Equal(t, model.EventUserList, ev.Type)
	assert.Equal(t, []string{"Ana"}, ev.Users)

	ben := dial(t, ctx, url)
	ev = readEvent(t, ctx, ben)
	assert.Equal(t, model.EventConnected, ev.Type)

	writeEvent(t, ctx, ben, model.ClientEvent{Type: model.EventJoin, Username: "Ben"})
	ev = readEvent(t, ctx, ben)
	assert.Equal(t, model.EventChatHistory, ev.Type)
	ev = readEvent(t, ctx, ben)
	assert.Equal(t, model.EventUserList, ev.Type)
	assert.Equal(t, 2, ev.Count)

	ev = readEvent(t, ctx, ana)
	assert.Equal(t, model.EventUserJoined, ev.Type)
	assert.Equal(t, "Ben", ev.Username)
	assert.Equal(t, 2, ev.ActiveCount)
	ev = readEvent(t, ctx, ana)
	assert.Equal(t, model.EventUserList, ev.Type)

	writeEvent(t, ctx, ana, model.ClientEvent{Type: model.EventMessage, Message: "hi"})
	for _, conn := range []*websocket.Conn{ana, ben} {
		ev = readEvent(t, ctx, conn)
		assert.Equal(t, model.EventMessage, ev.Type)
		assert.Equal(t, "Ana", ev.Username)
		assert.Equal(t, "hi", ev.Message)
	}

	// Transport close funnels through the same disconnect path as an
	// explicit disconnect event.
	require.NoError(t, ben.Close(websocket.StatusNormalClosure, "bye"))

	ev = readEvent(t, ctx, ana)
	assert.Equal(t, model.EventUserLeft, ev.Type)
	assert.Equal(t, "Ben", ev.Username)
	assert.Equal(t, 1, ev.ActiveCount)
}
