// Package model defines data structure.
package model

import "time"

// Message holds information about a single chat message. Messages are
// immutable once created; the ID is a server-assigned monotonic
// sequence number and CreatedAt is always server time.
type Message struct {
	ID        int64
	Username  string
	Text      string
	CreatedAt time.Time
}

// Payload converts a Message to its wire representation.
func (m Message) Payload() MessagePayload {
	return MessagePayload{
		ID:        m.ID,
		Username:  m.Username,
		Message:   m.Text,
		Timestamp: m.CreatedAt.Format("15:04:05"),
		Datetime:  m.CreatedAt.Format(time.RFC3339),
	}
}
