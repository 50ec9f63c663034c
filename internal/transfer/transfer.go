// Package transfer implements spec.md §4.6: the dual download/upload
// queues with a concurrency cap per login+IP key, cooperative rate
// limiting, and queue-position reporting. The
// teacher's internal/transfer package wraps the external sz/rz
// ZMODEM binaries over a PTY for its BBS's terminal file transfers;
// Wired's OOB in-protocol byte stream (spec.md GLOSSARY) has no PTY
// and no external protocol binary, so this package is a from-scratch
// queue/rate-limiter grounded directly on spec.md §4.6/§5. A queued
// transfer learns that its turn has come by polling its own queue
// position (see Transfer.Wait); no condition variable is used.
package transfer

import (
	"sync"
	"time"
)

type Type int

const (
	Download Type = iota
	Upload
)

type State int

const (
	Queued State = iota
	Running
)

// Transfer is spec.md §3's Transfer entity.
type Transfer struct {
	mu sync.Mutex

	Type         Type
	Login        string
	IP           string
	VirtualPath  string
	RealPath     string
	RsrcPath     string

	DataSize        int64
	RsrcSize        int64
	DataTransferred int64
	RsrcTransferred int64

	Speed   int64 // bytes/sec cap; 0 means unlimited
	Limiter *RateLimiter

	State     State
	QueuePos  int // 0 = ready/running, >0 = waiting rank
	QueueTime time.Time
	Executable bool
	Metadata   []byte

	done chan struct{}
}

// Key is the per-user transfer-queue bucket, per the GLOSSARY:
// login ∥ ip.
func (t *Transfer) Key() string { return t.Login + t.IP }

func (t *Transfer) snapshot() (State, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.State, t.QueuePos
}

// AddBytes records newly transferred data/resource-fork bytes,
// maintaining the invariant data_transferred <= data_size (spec.md
// §8); rsrc is handled identically by the caller for the resource
// fork counters.
func (t *Transfer) AddBytes(data, rsrc int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.DataTransferred += data
	if t.DataTransferred > t.DataSize {
		t.DataTransferred = t.DataSize
	}
	t.RsrcTransferred += rsrc
	if t.RsrcTransferred > t.RsrcSize {
		t.RsrcTransferred = t.RsrcSize
	}
}

// Wait blocks until the transfer reaches queue position 0 (ready to
// run), checking every 100ms, or until cancel closes; a nil cancel
// never fires. The done field is not consulted.
func (t *Transfer) Wait(cancel <-chan struct{}) bool {
	for {
		_, pos := t.snapshot()
		if pos == 0 {
			return true
		}
		select {
		case <-cancel:
			return false
		case <-time.After(100 * time.Millisecond):
		}
	}
}
