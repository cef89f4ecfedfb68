package presence

import (
	"reflect"
	"testing"
)

func TestOnJoinCountsDistinctUsers(t *testing.T) {
	r := NewRegistry()

	if got := r.OnJoin("ana"); got != 1 {
		t.Errorf("OnJoin(ana) = %d, want 1", got)
	}
	if got := r.OnJoin("ben"); got != 2 {
		t.Errorf("OnJoin(ben) = %d, want 2", got)
	}

	// A second session for the same username does not change the
	// distinct total.
	if got := r.OnJoin("ana"); got != 2 {
		t.Errorf("OnJoin(ana) again = %d, want 2", got)
	}
}

func TestOnLeave(t *testing.T) {
	r := NewRegistry()
	r.OnJoin("ana")
	r.OnJoin("ana")
	r.OnJoin("ben")

	last, count := r.OnLeave("ana")
	if last {
		t.Error("OnLeave(ana) reported last with one session remaining")
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	last, count = r.OnLeave("ana")
	if !last {
		t.Error("OnLeave(ana) did not report last on final session")
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if r.Online("ana") {
		t.Error("ana still online after last session left")
	}

	t.Run("unknown username is a no-op", func(t *testing.T) {
		last, count := r.OnLeave("ghost")
		if last || count != 1 {
			t.Errorf("OnLeave(ghost) = (%t, %d), want (false, 1)", last, count)
		}
	})
}

func TestSnapshotOrdering(t *testing.T) {
	r := NewRegistry()

	// Ordering is by first join, never alphabetic; re-joins do not
	// reorder.
	r.OnJoin("zoe")
	r.OnJoin("ana")
	r.OnJoin("ben")
	r.OnJoin("zoe")

	users, count := r.Snapshot()
	want := []string{"zoe", "ana", "ben"}
	if !reflect.DeepEqual(users, want) {
		t.Errorf("Snapshot() users = %v, want %v", users, want)
	}
	if count != 3 {
		t.Errorf("Snapshot() count = %d, want 3", count)
	}

	t.Run("rejoin after full leave moves to the back", func(t *testing.T) {
		r.OnLeave("zoe")
		r.OnLeave("zoe")
		r.OnJoin("zoe")

		users, _ := r.Snapshot()
		want := []string{"ana", "ben", "zoe"}
		if !reflect.DeepEqual(users, want) {
			t.Errorf("Snapshot() users = %v, want %v", users, want)
		}
	})
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	r.OnJoin("ana")

	users, _ := r.Snapshot()
	users[0] = "mallory"

	again, _ := r.Snapshot()
	if again[0] != "ana" {
		t.Error("Snapshot() exposed internal ordering slice")
	}
}
