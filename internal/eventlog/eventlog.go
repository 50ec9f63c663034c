// Package eventlog is spec.md §4.10's audit log: every privileged or
// notable action is appended as an Event row, queryable by time range,
// with duplicate suppression for the two high-frequency,
// low-information events a single session can generate many of in a
// row (asking for one user's info or a chat's user list repeatedly). Grounded on the
// teacher's internal/user admin_log.go append-only audit trail,
// adapted from a per-user JSON log file to a single store-backed table
// shared by the whole server.
package eventlog

import (
	"sync"
	"time"

	"github.com/stlalpha/wired/internal/store"
)

// dedupeWindow bounds how long a (session, event-name) pair is
// suppressed after its first occurrence, per spec.md §4.10's
// "user.got_info/user.got_users from the same session in quick
// succession are recorded once."
const dedupeWindow = time.Second

// suppressed names the events duplicate-suppressed per session.
var suppressed = map[string]bool{
	"user.got_info":  true,
	"user.got_users": true,
}

type Log struct {
	store *store.Store

	mu   sync.Mutex
	last map[string]time.Time // "sessionKey\x00event" -> last recorded time
}

func New(s *store.Store) *Log {
	return &Log{store: s, last: make(map[string]time.Time)}
}

// Record appends an event, unless it is a duplicate-suppressed event
// name seen from the same session within dedupeWindow.
func (l *Log) Record(sessionKey, name, parameters, nick, login, ip string) error {
	if suppressed[name] {
		key := sessionKey + "\x00" + name
		l.mu.Lock()
		if t, ok := l.last[key]; ok && time.Since(t) < dedupeWindow {
			l.mu.Unlock()
			return nil
		}
		l.last[key] = time.Now()
		l.mu.Unlock()
	}

	return l.store.AppendEvent(&store.EventRow{
		Name:       name,
		Parameters: parameters,
		Nick:       nick,
		Login:      login,
		IP:         ip,
	})
}

// Range returns every event between from and to inclusive, per
// spec.md §4.10's log.get_events time-range query. Deleting events is
// a no-op: spec.md's Open Question on event.delete_events is resolved
// here as "acknowledge and retain" -- the audit trail is append-only
// by design, and a Wired client has no way to distinguish an
// acknowledged-but-kept event from a physically deleted one, so there
// is no externally observable reason to ever prune it.
func (l *Log) Range(from, to time.Time) ([]store.EventRow, error) {
	return l.store.EventsInRange(from, to)
}

func (l *Log) FirstEventTime() (time.Time, error) {
	return l.store.FirstEventTime()
}

// DeleteEvents always succeeds without modifying the store, per the
// Open Question resolution above. Nothing calls it: the schema
// declares no event.delete_events message and dispatch routes none.
func (l *Log) DeleteEvents(from, to time.Time) error {
	return nil
}
