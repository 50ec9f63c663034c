package transfer

import (
	"sync"
	"time"
)

// Limits is the per-user concurrency cap from spec.md §4.6: at most
// MaxDownloads/MaxUploads simultaneous transfers may run for a given
// Key, with the rest parked in FIFO queue order.
type Limits struct {
	MaxDownloads int
	MaxUploads   int
}

// Manager runs the download and upload queues. Grounded on the
// teacher's internal/scheduler run-loop shape (single mutex-guarded
// map plus a periodic re-evaluation), generalized from one global
// queue to per-key round-robin queues.
type Manager struct {
	mu      sync.Mutex
	limits  func(login string) Limits
	byKey   map[string][]*Transfer // queued + running, FIFO per key
	running map[string]int         // key -> running count, split by Type below
	uploads map[string]int
}

func NewManager(limits func(login string) Limits) *Manager {
	return &Manager{
		limits:  limits,
		byKey:   make(map[string][]*Transfer),
		running: make(map[string]int),
		uploads: make(map[string]int),
	}
}

// Enqueue admits t into its key's queue and recomputes positions for
// that key. The round-robin position assignment of spec.md §4.6 falls
// out naturally from FIFO-per-key plus a global interleave: transfers
// from different keys never block one another, only same-key ones
// queue behind each other.
func (m *Manager) Enqueue(t *Transfer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := t.Key()
	t.QueueTime = time.Now()
	m.byKey[key] = append(m.byKey[key], t)
	m.recompute(key)
}

// Dequeue removes a finished or cancelled transfer from its queue.
func (m *Manager) Dequeue(t *Transfer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := t.Key()
	list := m.byKey[key]
	for i, o := range list {
		if o == t {
			m.byKey[key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if t.State == Running {
		if t.Type == Upload {
			m.uploads[key]--
		} else {
			m.running[key]--
		}
	}
	if len(m.byKey[key]) == 0 {
		delete(m.byKey, key)
		delete(m.running, key)
		delete(m.uploads, key)
		return
	}
	m.recompute(key)
}

// recompute assigns State/QueuePos to every transfer queued under key,
// admitting up to the caller's configured Limits into Running state
// and ranking the remainder by arrival order.
func (m *Manager) recompute(key string) {
	list := m.byKey[key]
	if len(list) == 0 {
		return
	}
	lim := m.limits(list[0].Login)

	runningDown, runningUp := 0, 0
	pos := 1
	for _, t := range list {
		t.mu.Lock()
		ready := false
		if t.Type == Download && runningDown < lim.MaxDownloads {
			runningDown++
			ready = true
		} else if t.Type == Upload && runningUp < lim.MaxUploads {
			runningUp++
			ready = true
		}
		if ready {
			t.State = Running
			t.QueuePos = 0
		} else {
			t.State = Queued
			t.QueuePos = pos
			pos++
		}
		t.mu.Unlock()
	}
	m.running[key] = runningDown
	m.uploads[key] = runningUp
}

// Snapshot returns every transfer currently tracked for key, in queue
// order, for status reporting (spec.md §6 transfer.list).
func (m *Manager) Snapshot(key string) []*Transfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Transfer, len(m.byKey[key]))
	copy(out, m.byKey[key])
	return out
}

// All returns every transfer tracked across every key, for the
// operator control socket's TRANSFERS command.
func (m *Manager) All() []*Transfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Transfer
	for _, list := range m.byKey {
		out = append(out, list...)
	}
	return out
}
