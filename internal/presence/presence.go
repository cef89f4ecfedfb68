// Package presence derives the online-user set from active sessions.
// Multiple sessions may share a username; a username only leaves the
// online set when its last session disconnects.
package presence

// Registry keeps a reference count of sessions per username and the
// order in which usernames first joined. Content is always a pure
// function of the session registry; the dispatcher is the only writer.
type Registry struct {
	counts map[string]int
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{
		counts: make(map[string]int),
	}
}

// OnJoin increments the session count for username and returns the new
// distinct-user total. First-time usernames are appended to the
// ordering used by Snapshot.
func (r *Registry) OnJoin(username string) int {
	if r.counts[username] == 0 {
		r.order = append(r.order, username)
	}
	r.counts[username]++

	return len(r.counts)
}

// OnLeave decrements the session count for username. It reports
// whether this was the last session for that username, along with the
// new distinct-user total. Unknown usernames are a no-op.
func (r *Registry) OnLeave(username string) (last bool, count int) {
	n, ok := r.counts[username]
	if !ok {
		return false, len(r.counts)
	}

	if n <= 1 {
		delete(r.counts, username)
		r.removeFromOrder(username)
		return true, len(r.counts)
	}

	r.counts[username] = n - 1
	return false, len(r.counts)
}

// Snapshot returns the online usernames in first-join order and the
// distinct-user total.
func (r *Registry) Snapshot() ([]string, int) {
	users := make([]string, len(r.order))
	copy(users, r.order)
	return users, len(r.counts)
}

// Count returns the distinct-user total.
func (r *Registry) Count() int {
	return len(r.counts)
}

// Online reports whether username has at least one active session.
func (r *Registry) Online(username string) bool {
	return r.counts[username] > 0
}

func (r *Registry) removeFromOrder(username string) {
	for i, name := range r.order {
		if name == username {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
