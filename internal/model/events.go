package model

// Client-to-server and server-to-client event types. The websocket
// protocol is JSON text frames with a "type" discriminator on both
// directions.
const (
	EventConnected   = "connected"
	EventChatHistory = "chat_history"
	EventUserJoined  = "user_joined"
	EventUserLeft    = "user_left"
	EventUserList    = "user_list"
	EventMessage     = "message"
	EventTyping      = "typing"
	EventError       = "error"

	EventJoin = "join"
)

// Error codes carried in ErrorEvent replies.
const (
	ErrCodeInvalidJoin    = "invalid_join"
	ErrCodeEmptyMessage   = "empty_message"
	ErrCodeMessageTooLong = "message_too_long"
	ErrCodeNotJoined      = "not_joined"
	ErrCodeRateLimited    = "rate_limited"
)

// ClientEvent is the single envelope for everything a client sends.
// Fields not relevant to the event type are left at their zero value.
type ClientEvent struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
	Typing   bool   `json:"typing,omitempty"`
}

// ConnectedEvent is sent to a session on transport accept, before join.
type ConnectedEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MessagePayload is the wire form of a chat message, used both inside
// ChatHistoryEvent and as a standalone message broadcast.
type MessagePayload struct {
	Type      string `json:"type,omitempty"`
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Datetime  string `json:"datetime"`
}

// ChatHistoryEvent delivers the recent-message snapshot to a session
// that just joined.
type ChatHistoryEvent struct {
	Type     string           `json:"type"`
	Messages []MessagePayload `json:"messages"`
}

// PresenceEvent announces a user joining or leaving. ActiveCount is
// the number of distinct online usernames after the change.
type PresenceEvent struct {
	Type        string `json:"type"`
	Username    string `json:"username"`
	Timestamp   string `json:"timestamp"`
	ActiveCount int    `json:"active_count"`
}

// UserListEvent carries the full online list, ordered by first join.
type UserListEvent struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// TypingEvent announces a typing state transition for a username.
type TypingEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}

// ErrorEvent is a direct reply to the session whose event was rejected.
// Rejections never broadcast and never mutate shared state.
type ErrorEvent struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
