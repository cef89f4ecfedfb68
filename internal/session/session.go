// Package session tracks the mapping from connection identity to
// username. One session per physical connection; sessions are created
// at join and destroyed at disconnect, never reused.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDuplicateSession = errors.New("session id already registered")
	ErrUnknownSession   = errors.New("unknown session id")
)

// Session is one live connection with its username. Username is set
// once at registration and never changes for the session's lifetime.
type Session struct {
	ID          uuid.UUID
	Username    string
	ConnectedAt time.Time
}

// Registry owns all active sessions. It is not safe for concurrent
// use; the dispatcher serializes every access.
type Registry struct {
	sessions map[uuid.UUID]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Register creates a session for the given connection id. It fails
// with ErrDuplicateSession if the id is already registered. Usernames
// are not required to be unique across sessions.
func (r *Registry) Register(id uuid.UUID, username string) (*Session, error) {
	if _, ok := r.sessions[id]; ok {
		return nil, ErrDuplicateSession
	}

	s := &Session{
		ID:          id,
		Username:    username,
		ConnectedAt: time.Now().UTC(),
	}
	r.sessions[id] = s

	return s, nil
}

// Unregister removes a session and returns its username. It fails with
// ErrUnknownSession if the id was already removed; callers treat that
// as an idempotent no-op so a double-disconnect never corrupts state.
func (r *Registry) Unregister(id uuid.UUID) (string, error) {
	s, ok := r.sessions[id]
	if !ok {
		return "", ErrUnknownSession
	}

	delete(r.sessions, id)
	return s.Username, nil
}

// Lookup returns the username for a session id, if registered.
func (r *Registry) Lookup(id uuid.UUID) (string, bool) {
	s, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	return s.Username, true
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}
