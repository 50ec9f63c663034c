package eventlog

import (
	"testing"
	"time"

	"github.com/stlalpha/wired/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/wired.db")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLog_SuppressesRepeatedGotUsersFromSameSession(t *testing.T) {
	l := New(newTestStore(t))

	for i := 0; i < 5; i++ {
		if err := l.Record("session-1", "user.got_users", "", "bob", "bob", "127.0.0.1"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	from, _ := l.FirstEventTime()
	events, err := l.Range(from.Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 suppressed-duplicate event, got %d", len(events))
	}
}

func TestLog_DoesNotSuppressDifferentSessions(t *testing.T) {
	l := New(newTestStore(t))

	l.Record("session-1", "user.got_users", "", "bob", "bob", "127.0.0.1")
	l.Record("session-2", "user.got_users", "", "alice", "alice", "127.0.0.2")

	from, _ := l.FirstEventTime()
	events, _ := l.Range(from.Add(-time.Hour), time.Now().Add(time.Hour))
	if len(events) != 2 {
		t.Fatalf("expected 2 events for distinct sessions, got %d", len(events))
	}
}

func TestLog_DoesNotSuppressUnlistedEvents(t *testing.T) {
	l := New(newTestStore(t))

	l.Record("session-1", "user.login", "", "bob", "bob", "127.0.0.1")
	l.Record("session-1", "user.login", "", "bob", "bob", "127.0.0.1")

	from, _ := l.FirstEventTime()
	events, _ := l.Range(from.Add(-time.Hour), time.Now().Add(time.Hour))
	if len(events) != 2 {
		t.Fatalf("expected both login events recorded, got %d", len(events))
	}
}
