package transfer

import "testing"

func fixedLimits(login string) Limits { return Limits{MaxDownloads: 1, MaxUploads: 1} }

func TestManager_SecondDownloadQueuesBehindFirst(t *testing.T) {
	m := NewManager(fixedLimits)
	a := &Transfer{Type: Download, Login: "bob", IP: "1.2.3.4"}
	b := &Transfer{Type: Download, Login: "bob", IP: "1.2.3.4"}

	m.Enqueue(a)
	m.Enqueue(b)

	if a.State != Running || a.QueuePos != 0 {
		t.Fatalf("expected first transfer running, got state=%v pos=%d", a.State, a.QueuePos)
	}
	if b.State != Queued || b.QueuePos != 1 {
		t.Fatalf("expected second transfer queued at pos 1, got state=%v pos=%d", b.State, b.QueuePos)
	}
}

func TestManager_DequeueRunningPromotesNext(t *testing.T) {
	m := NewManager(fixedLimits)
	a := &Transfer{Type: Download, Login: "bob", IP: "1.2.3.4"}
	b := &Transfer{Type: Download, Login: "bob", IP: "1.2.3.4"}
	m.Enqueue(a)
	m.Enqueue(b)

	m.Dequeue(a)

	if b.State != Running || b.QueuePos != 0 {
		t.Fatalf("expected second transfer promoted to running, got state=%v pos=%d", b.State, b.QueuePos)
	}
}

func TestManager_DifferentKeysDoNotQueueBehindEachOther(t *testing.T) {
	m := NewManager(fixedLimits)
	a := &Transfer{Type: Download, Login: "bob", IP: "1.2.3.4"}
	b := &Transfer{Type: Download, Login: "alice", IP: "5.6.7.8"}
	m.Enqueue(a)
	m.Enqueue(b)

	if a.State != Running || b.State != Running {
		t.Fatalf("expected both transfers running since keys differ, got a=%v b=%v", a.State, b.State)
	}
}

func TestRateLimiter_UnlimitedNeverWaits(t *testing.T) {
	rl := NewRateLimiter(0)
	if wait := rl.Allow(1 << 30); wait != 0 {
		t.Fatalf("expected no wait for unlimited rate, got %v", wait)
	}
}

func TestRateLimiter_OverBudgetWaits(t *testing.T) {
	rl := NewRateLimiter(100)
	rl.Allow(50)
	if wait := rl.Allow(1000); wait <= 0 {
		t.Fatalf("expected a positive backoff once over budget, got %v", wait)
	}
}
