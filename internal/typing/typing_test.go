package typing

import (
	"reflect"
	"testing"
	"time"
)

func TestSetTypingTransitions(t *testing.T) {
	c := NewCoordinator(time.Second)
	now := time.Now().UTC()

	if !c.SetTyping("ana", now) {
		t.Error("first SetTyping() did not report a transition")
	}

	// Repeated keystrokes refresh the expiry but are not transitions.
	if c.SetTyping("ana", now.Add(200*time.Millisecond)) {
		t.Error("repeated SetTyping() reported a transition")
	}

	if !c.Active("ana", now.Add(1100*time.Millisecond)) {
		t.Error("refresh did not extend the expiry")
	}
}

func TestSetTypingAfterExpiryIsATransition(t *testing.T) {
	c := NewCoordinator(time.Second)
	now := time.Now().UTC()

	c.SetTyping("ana", now)

	// Entry went stale but was not swept yet; typing again is a fresh
	// transition.
	if !c.SetTyping("ana", now.Add(2*time.Second)) {
		t.Error("SetTyping() after expiry did not report a transition")
	}
}

func TestClearTyping(t *testing.T) {
	c := NewCoordinator(time.Second)
	now := time.Now().UTC()

	if c.ClearTyping("ana") {
		t.Error("ClearTyping() on inactive user reported a transition")
	}

	c.SetTyping("ana", now)
	if !c.ClearTyping("ana") {
		t.Error("ClearTyping() on active user did not report a transition")
	}
	if c.Active("ana", now) {
		t.Error("user still active after ClearTyping()")
	}
}

func TestExpireStale(t *testing.T) {
	c := NewCoordinator(time.Second)
	now := time.Now().UTC()

	c.SetTyping("ana", now)
	c.SetTyping("ben", now.Add(500*time.Millisecond))

	if expired := c.ExpireStale(now.Add(900 * time.Millisecond)); expired != nil {
		t.Errorf("ExpireStale() = %v before any expiry", expired)
	}

	expired := c.ExpireStale(now.Add(1100 * time.Millisecond))
	if !reflect.DeepEqual(expired, []string{"ana"}) {
		t.Errorf("ExpireStale() = %v, want [ana]", expired)
	}

	// Already swept; must not expire twice.
	if expired := c.ExpireStale(now.Add(1200 * time.Millisecond)); expired != nil {
		t.Errorf("ExpireStale() re-expired = %v", expired)
	}

	expired = c.ExpireStale(now.Add(2 * time.Second))
	if !reflect.DeepEqual(expired, []string{"ben"}) {
		t.Errorf("ExpireStale() = %v, want [ben]", expired)
	}
}

func TestLastWriterOwnsItsExpiry(t *testing.T) {
	c := NewCoordinator(time.Second)
	now := time.Now().UTC()

	c.SetTyping("ana", now)
	c.SetTyping("ben", now.Add(800*time.Millisecond))

	// Ben's later keystroke must not extend Ana's flag.
	expired := c.ExpireStale(now.Add(1100 * time.Millisecond))
	if !reflect.DeepEqual(expired, []string{"ana"}) {
		t.Errorf("ExpireStale() = %v, want [ana]", expired)
	}
	if !c.Active("ben", now.Add(1100*time.Millisecond)) {
		t.Error("ben expired early")
	}
}
