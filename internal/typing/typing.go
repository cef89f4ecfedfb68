// Package typing tracks per-username typing flags with auto-expiry.
// A flag is active while now < expiry; keystroke events only refresh
// the owner's expiry, never another user's.
package typing

import "time"

// Coordinator maps usernames to typing-flag expiry timestamps. Expiry
// replaces the original per-keystroke countdown timers: entries are
// swept on a dispatcher tick instead of arming one timer per event.
// Not safe for concurrent use; the dispatcher serializes every access.
type Coordinator struct {
	timeout time.Duration
	expiry  map[string]time.Time
}

func NewCoordinator(timeout time.Duration) *Coordinator {
	return &Coordinator{
		timeout: timeout,
		expiry:  make(map[string]time.Time),
	}
}

// SetTyping marks username as typing until now + timeout. It reports
// whether this was a false->true transition; the dispatcher only
// broadcasts on transitions, not on every keystroke.
func (c *Coordinator) SetTyping(username string, now time.Time) bool {
	_, active := c.expiry[username]
	if active && now.After(c.expiry[username]) {
		// Stale entry not yet swept counts as inactive.
		active = false
	}

	c.expiry[username] = now.Add(c.timeout)
	return !active
}

// ClearTyping marks username as not typing. It reports whether this
// was a true->false transition.
func (c *Coordinator) ClearTyping(username string) bool {
	_, active := c.expiry[username]
	delete(c.expiry, username)
	return active
}

// ExpireStale removes every entry whose expiry has passed and returns
// the affected usernames. Each yields one stop-typing broadcast.
func (c *Coordinator) ExpireStale(now time.Time) []string {
	var expired []string
	for username, exp := range c.expiry {
		if now.After(exp) {
			delete(c.expiry, username)
			expired = append(expired, username)
		}
	}
	return expired
}

// Active reports whether username currently has a live typing flag.
func (c *Coordinator) Active(username string, now time.Time) bool {
	exp, ok := c.expiry[username]
	return ok && now.Before(exp)
}
