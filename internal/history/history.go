// Package history keeps a bounded, time-ordered buffer of recent
// messages. The buffer is the only message store; there is no
// persistence across restarts.
package history

import "github.com/johndosdos/livechat/internal/model"

// Buffer is a FIFO ring of the most recent messages. Appending beyond
// capacity evicts the oldest entry. Not safe for concurrent use; the
// dispatcher serializes every access.
type Buffer struct {
	buf   []model.Message
	start int
	size  int
}

func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		buf: make([]model.Message, capacity),
	}
}

// Append stores a message, evicting the oldest when full. O(1).
func (b *Buffer) Append(msg model.Message) {
	if b.size < len(b.buf) {
		b.buf[(b.start+b.size)%len(b.buf)] = msg
		b.size++
		return
	}

	// Full: overwrite the oldest slot and advance the start.
	b.buf[b.start] = msg
	b.start = (b.start + 1) % len(b.buf)
}

// Snapshot returns up to limit of the most recent messages in
// chronological (oldest-first) order.
func (b *Buffer) Snapshot(limit int) []model.Message {
	if limit <= 0 || limit > b.size {
		limit = b.size
	}

	out := make([]model.Message, 0, limit)
	for i := b.size - limit; i < b.size; i++ {
		out = append(out, b.buf[(b.start+i)%len(b.buf)])
	}
	return out
}

// Len returns the number of retained messages.
func (b *Buffer) Len() int {
	return b.size
}

// Cap returns the retention capacity.
func (b *Buffer) Cap() int {
	return len(b.buf)
}
