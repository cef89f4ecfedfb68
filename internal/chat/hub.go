// Package chat implements the realtime core: a single dispatcher
// goroutine that owns session, presence, history, and typing state,
// applies inbound events in arrival order, and fans resulting events
// out to every connected session.
package chat

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/johndosdos/livechat/internal/history"
	"github.com/johndosdos/livechat/internal/model"
	"github.com/johndosdos/livechat/internal/presence"
	"github.com/johndosdos/livechat/internal/session"
	"github.com/johndosdos/livechat/internal/typing"
)

const maxUsernameLen = 32

type sanitizer interface {
	Sanitize(s string) string
	SanitizeBytes(p []byte) []byte
}

// Options bound the shared stores and timers. Zero values fall back to
// the defaults below.
type Options struct {
	HistoryRetain   int           // retained message capacity
	HistorySnapshot int           // messages sent to a joining session
	MessageMaxLen   int           // characters, rejected above this
	TypingTimeout   time.Duration // idle time before a typing flag expires
	TypingTick      time.Duration // sweep interval for stale typing flags
	SendQueue       int           // outbound events buffered per session
}

func (o Options) withDefaults() Options {
	if o.HistoryRetain <= 0 {
		o.HistoryRetain = 1000
	}
	if o.HistorySnapshot <= 0 {
		o.HistorySnapshot = 50
	}
	if o.MessageMaxLen <= 0 {
		o.MessageMaxLen = 500
	}
	if o.TypingTimeout <= 0 {
		o.TypingTimeout = time.Second
	}
	if o.TypingTick <= 0 {
		o.TypingTick = 250 * time.Millisecond
	}
	if o.SendQueue <= 0 {
		o.SendQueue = 100
	}
	return o
}

// Registration pairs a client with a channel closed once the hub has
// taken ownership of it.
type Registration struct {
	Client *Client
	Done   chan struct{}
}

// Inbound is one client event routed to the hub.
type Inbound struct {
	Client *Client
	Event  model.ClientEvent
}

// Stats is a diagnostics snapshot, answered by the hub goroutine so a
// reader never observes a torn update.
type Stats struct {
	Users      []string `json:"users"`
	Count      int      `json:"count"`
	Sessions   int      `json:"sessions"`
	HistoryLen int      `json:"history_len"`
	UptimeSec  int64    `json:"uptime_sec"`
}

// Hub contains everything needed for chat state management. All four
// stores are owned by the Run goroutine; nothing else mutates them.
type Hub struct {
	opts Options

	sessions *session.Registry
	presence *presence.Registry
	history  *history.Buffer
	typing   *typing.Coordinator

	clients map[*Client]struct{}
	nextID  int64

	Register   chan Registration
	Unregister chan *Client
	Inbound    chan Inbound
	statsReq   chan chan Stats

	sanitizer sanitizer
	started   time.Time
}

// NewHub returns a new instance of Hub.
func NewHub(opts Options) *Hub {
	opts = opts.withDefaults()
	return &Hub{
		opts:       opts,
		sessions:   session.NewRegistry(),
		presence:   presence.NewRegistry(),
		history:    history.NewBuffer(opts.HistoryRetain),
		typing:     typing.NewCoordinator(opts.TypingTimeout),
		clients:    make(map[*Client]struct{}),
		Register:   make(chan Registration),
		Unregister: make(chan *Client),
		Inbound:    make(chan Inbound, 256),
		statsReq:   make(chan chan Stats),
		sanitizer:  bluemonday.StrictPolicy(),
		started:    time.Now().UTC(),
	}
}

// Options returns the effective hub configuration.
func (h *Hub) Options() Options {
	return h.opts
}

// Run processes hub traffic until ctx is cancelled. It is the only
// goroutine allowed to touch the shared stores, which serializes all
// mutations in event arrival order.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.opts.TypingTick)
	defer ticker.Stop()

	for {
		select {
		case reg := <-h.Register:
			h.handleConnect(reg.Client)
			close(reg.Done)

		case client := <-h.Unregister:
			h.handleDisconnect(client)

		case in := <-h.Inbound:
			h.handleEvent(in.Client, in.Event)

		case now := <-ticker.C:
			h.expireTyping(now.UTC())

		case reply := <-h.statsReq:
			reply <- h.stats()

		case <-ctx.Done():
			log.Printf("hub stopping: %v", ctx.Err())
			h.closeAll()
			return
		}
	}
}

// Stats answers a diagnostics query through the hub's own
// serialization point.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case h.statsReq <- reply:
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (h *Hub) stats() Stats {
	users, count := h.presence.Snapshot()
	return Stats{
		Users:      users,
		Count:      count,
		Sessions:   h.sessions.Len(),
		HistoryLen: h.history.Len(),
		UptimeSec:  int64(time.Since(h.started).Seconds()),
	}
}

func (h *Hub) handleConnect(c *Client) {
	c.Hub = h
	h.clients[c] = struct{}{}
	h.sendTo(c, model.ConnectedEvent{
		Type:    model.EventConnected,
		Message: "Connected to chat server",
	})
	log.Printf("client [%s] connected", c.ID)
}

func (h *Hub) handleEvent(c *Client, ev model.ClientEvent) {
	if c.state == stateDisconnected {
		return
	}

	switch ev.Type {
	case model.EventJoin:
		h.handleJoin(c, ev.Username)
	case model.EventMessage:
		h.handleMessage(c, ev.Message)
	case model.EventTyping:
		h.handleTyping(c, ev.Typing)
	default:
		slog.Warn("unknown client event",
			"type", ev.Type,
			"session_id", c.ID.String())
	}
}

// handleJoin moves a connection from Connecting to Joined. Rejections
// leave the connection in Connecting so the client may retry.
func (h *Hub) handleJoin(c *Client, username string) {
	if c.state == stateJoined {
		h.sendError(c, model.ErrCodeInvalidJoin, "already joined")
		return
	}

	username = strings.TrimSpace(h.sanitizer.Sanitize(strings.TrimSpace(username)))
	if username == "" {
		h.sendError(c, model.ErrCodeInvalidJoin, "username must not be empty")
		return
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		h.sendError(c, model.ErrCodeInvalidJoin, "username too long")
		return
	}

	if _, err := h.sessions.Register(c.ID, username); err != nil {
		// Can only be a duplicate session id; treated as a no-op per
		// the dispatcher's idempotence contract.
		slog.Warn("session registration failed",
			"session_id", c.ID.String(),
			"error", err)
		return
	}

	c.state = stateJoined
	c.Username = username
	count := h.presence.OnJoin(username)

	// The joiner gets its private history snapshot first, then the
	// room-wide announcements. Broadcasts reflect fully applied state.
	snapshot := h.history.Snapshot(h.opts.HistorySnapshot)
	payloads := make([]model.MessagePayload, 0, len(snapshot))
	for _, msg := range snapshot {
		payloads = append(payloads, msg.Payload())
	}
	h.sendTo(c, model.ChatHistoryEvent{
		Type:     model.EventChatHistory,
		Messages: payloads,
	})

	now := time.Now().UTC()
	h.broadcast(model.PresenceEvent{
		Type:        model.EventUserJoined,
		Username:    username,
		Timestamp:   now.Format("15:04:05"),
		ActiveCount: count,
	}, c)
	h.broadcastUserList()

	log.Printf("user [%s] joined (session %s), %d online", username, c.ID, count)
}

func (h *Hub) handleMessage(c *Client, text string) {
	if c.state != stateJoined {
		h.sendError(c, model.ErrCodeNotJoined, "join before sending messages")
		return
	}
	if !c.allowMessage() {
		h.sendError(c, model.ErrCodeRateLimited, "too many messages, slow down")
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		h.sendError(c, model.ErrCodeEmptyMessage, "message must not be empty")
		return
	}
	// Length is checked on the submitted text; messages over the limit
	// are rejected outright, never truncated.
	if utf8.RuneCountInString(text) > h.opts.MessageMaxLen {
		h.sendError(c, model.ErrCodeMessageTooLong, "message exceeds length limit")
		return
	}

	h.nextID++
	msg := model.Message{
		ID:       h.nextID,
		Username: c.Username,
		// Sanitize before the message enters shared state.
		Text: h.sanitizer.Sanitize(text),
		// Server time only; client-supplied timestamps are not trusted.
		CreatedAt: time.Now().UTC(),
	}
	h.history.Append(msg)

	payload := msg.Payload()
	payload.Type = model.EventMessage
	// Everyone including the sender, so all viewers share one ordering.
	h.broadcast(payload, nil)
}

func (h *Hub) handleTyping(c *Client, isTyping bool) {
	if c.state != stateJoined {
		return
	}
	if !c.allowTyping() {
		return
	}

	var transition bool
	if isTyping {
		transition = h.typing.SetTyping(c.Username, time.Now().UTC())
	} else {
		transition = h.typing.ClearTyping(c.Username)
	}
	if !transition {
		return
	}

	h.broadcast(model.TypingEvent{
		Type:     model.EventTyping,
		Username: c.Username,
		Typing:   isTyping,
	}, c)
}

// handleDisconnect tears a session down. Explicit disconnects and
// transport drops both land here, and a double-disconnect is a no-op.
func (h *Hub) handleDisconnect(c *Client) {
	if c.state == stateDisconnected {
		return
	}

	wasJoined := c.state == stateJoined
	c.state = stateDisconnected
	delete(h.clients, c)
	close(c.Send)

	if !wasJoined {
		log.Printf("client [%s] disconnected before join", c.ID)
		return
	}

	username, err := h.sessions.Unregister(c.ID)
	if err != nil {
		// Bookkeeping race; already removed. Nothing left to clean up.
		slog.Warn("session unregister failed",
			"session_id", c.ID.String(),
			"error", err)
		return
	}

	last, count := h.presence.OnLeave(username)
	if last {
		h.typing.ClearTyping(username)
	}

	now := time.Now().UTC()
	h.broadcast(model.PresenceEvent{
		Type:        model.EventUserLeft,
		Username:    username,
		Timestamp:   now.Format("15:04:05"),
		ActiveCount: count,
	}, nil)
	h.broadcastUserList()

	log.Printf("user [%s] left (session %s), %d online", username, c.ID, count)
}

func (h *Hub) expireTyping(now time.Time) {
	for _, username := range h.typing.ExpireStale(now) {
		ev := model.TypingEvent{
			Type:     model.EventTyping,
			Username: username,
			Typing:   false,
		}
		// The typer's own sessions already know; everyone else gets
		// the stop notice.
		data, err := json.Marshal(ev)
		if err != nil {
			slog.Error("failed to marshal typing event", "error", err)
			continue
		}
		h.fanOut(data, func(c *Client) bool {
			return c.Username != username
		})
	}
}

func (h *Hub) broadcastUserList() {
	users, count := h.presence.Snapshot()
	h.broadcast(model.UserListEvent{
		Type:  model.EventUserList,
		Users: users,
		Count: count,
	}, nil)
}

// broadcast marshals once and fans the frame out to every connected
// session except the origin.
func (h *Hub) broadcast(payload any, except *Client) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal broadcast payload", "error", err)
		return
	}
	h.fanOut(data, func(c *Client) bool {
		return c != except
	})
}

// fanOut enqueues a frame to every session accepted by the filter.
// Enqueueing never blocks: a session whose queue is full is
// force-disconnected instead of stalling delivery to everyone else.
func (h *Hub) fanOut(data []byte, include func(*Client) bool) {
	var dropped []*Client
	for c := range h.clients {
		if !include(c) {
			continue
		}
		select {
		case c.Send <- data:
		default:
			dropped = append(dropped, c)
		}
	}

	for _, c := range dropped {
		slog.Warn("outbound queue full, dropping session",
			"session_id", c.ID.String(),
			"username", c.Username)
		h.handleDisconnect(c)
	}
}

func (h *Hub) sendTo(c *Client, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal payload", "error", err)
		return
	}
	select {
	case c.Send <- data:
	default:
		slog.Warn("outbound queue full, dropping session",
			"session_id", c.ID.String(),
			"username", c.Username)
		h.handleDisconnect(c)
	}
}

func (h *Hub) sendError(c *Client, code, detail string) {
	h.sendTo(c, model.ErrorEvent{
		Type:    model.EventError,
		Error:   code,
		Message: detail,
	})
}

func (h *Hub) closeAll() {
	for c := range h.clients {
		c.state = stateDisconnected
		close(c.Send)
	}
	h.clients = make(map[*Client]struct{})
}
