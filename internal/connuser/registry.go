package connuser

import (
	"sort"
	"sync"

	"github.com/stlalpha/wired/internal/accountsvc"
	"github.com/stlalpha/wired/internal/board"
	"github.com/stlalpha/wired/internal/chat"
)

// Registry tracks every connected User, adapted directly from the
// teacher's internal/session SessionRegistry (mutex-guarded map,
// Register/Unregister/Get/ListActive) generalized from node IDs to
// connection IDs.
type Registry struct {
	mu    sync.RWMutex
	users map[int32]*User
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[int32]*User)}
}

func (r *Registry) Register(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *Registry) Unregister(id int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

func (r *Registry) Get(id int32) *User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[id]
}

func (r *Registry) ListActive() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllSessions satisfies accountsvc.SessionRegistry.
func (r *Registry) AllSessions() []accountsvc.Session {
	active := r.ListActive()
	out := make([]accountsvc.Session, len(active))
	for i, u := range active {
		out[i] = u
	}
	return out
}

// BoardSubscribers satisfies board.SubscriberRegistry: every logged-in
// connection is a potential board-visibility subscriber.
func (r *Registry) BoardSubscribers() []board.Subscriber {
	active := r.ListActive()
	out := make([]board.Subscriber, 0, len(active))
	for _, u := range active {
		if u.AccountName() != "" {
			out = append(out, u)
		}
	}
	return out
}

// Deliver satisfies chat.Broadcaster, routing a chat event to a single
// connection by ID.
func (r *Registry) Deliver(userID int32, event string, args map[string]any) {
	if u := r.Get(userID); u != nil {
		u.Notify(event, args)
	}
}

var _ chat.Broadcaster = (*Registry)(nil)
