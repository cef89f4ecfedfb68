package chat

import (
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type connState int

const (
	stateConnecting connState = iota
	stateJoined
	stateDisconnected
)

// Client is one live connection as seen by the hub. The hub goroutine
// is the only writer of Username and state; the read/write pumps never
// touch them.
type Client struct {
	ID       uuid.UUID
	Username string
	Hub      *Hub

	// Send is the session's bounded outbound queue. The hub enqueues
	// pre-marshaled frames without blocking; a full queue gets the
	// session force-disconnected rather than stalling the broadcaster.
	Send chan []byte

	conn  *websocket.Conn
	state connState

	messageLim *rate.Limiter
	typingLim  *rate.Limiter
}

// NewClient returns a new instance of Client. conn may be nil in tests
// that drive the hub directly without pumps.
func NewClient(conn *websocket.Conn, queueSize int) *Client {
	return &Client{
		ID:    uuid.New(),
		conn:  conn,
		Send:  make(chan []byte, queueSize),
		state: stateConnecting,
	}
}

func (c *Client) SetMessageLimiter(requests int, window time.Duration) {
	c.messageLim = rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
}

func (c *Client) SetTypingLimiter(requests int, window time.Duration) {
	c.typingLim = rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
}

func (c *Client) allowMessage() bool {
	return c.messageLim == nil || c.messageLim.Allow()
}

func (c *Client) allowTyping() bool {
	return c.typingLim == nil || c.typingLim.Allow()
}
