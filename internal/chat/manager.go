package chat

import (
	"strings"
	"sync"
)

// Broadcaster delivers one outbound event to a single member; it is
// implemented by internal/connuser so that chat stays free of
// protocol/session types, matching the teacher's channel-based
// subscriber fan-out in internal/chat/room.go generalized to an
// interface instead of a typed channel, since Wired replies are
// schema.Message values built by the dispatcher, not plain strings.
type Broadcaster interface {
	Deliver(userID int32, event string, args map[string]any)
}

// Manager owns the public chat plus the map of live private chats,
// per spec.md §3/§4.7.
type Manager struct {
	mu       sync.RWMutex
	chats    map[uint32]*Chat
	nextID   uint32
	bcast    Broadcaster
}

func NewManager(bcast Broadcaster) *Manager {
	m := &Manager{
		chats:  make(map[uint32]*Chat),
		nextID: PublicChatID,
		bcast:  bcast,
	}
	m.chats[PublicChatID] = newChat(PublicChatID, false)
	return m
}

// Public returns the singleton public chat.
func (m *Manager) Public() *Chat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chats[PublicChatID]
}

// Get looks up any chat (public or private) by id.
func (m *Manager) Get(id uint32) (*Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chats[id]
	if !ok {
		return nil, ErrChatNotFound
	}
	return c, nil
}

// CreateChat allocates a new private room, per spec.md §4.7.
func (m *Manager) CreateChat() *Chat {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c := newChat(m.nextID, true)
	m.chats[c.ID] = c
	return c
}

// Leave removes a member; if the chat is private and now empty it is
// destroyed, per spec.md §4.7 "Private rooms are destroyed when the
// last member leaves."
func (m *Manager) Leave(chatID uint32, userID int32) error {
	c, err := m.Get(chatID)
	if err != nil {
		return err
	}
	empty, err := c.Leave(userID)
	if err != nil {
		return err
	}
	if empty && c.Private {
		m.mu.Lock()
		delete(m.chats, chatID)
		m.mu.Unlock()
	}
	m.broadcastSystem(c, userID, "leave")
	return nil
}

func (m *Manager) Join(chatID uint32, member Member) (*Chat, error) {
	c, err := m.Get(chatID)
	if err != nil {
		return nil, err
	}
	if err := c.Join(member); err != nil {
		return nil, err
	}
	m.broadcastSystem(c, member.UserID, "join")
	return c, nil
}

func (m *Manager) broadcastSystem(c *Chat, userID int32, kind string) {
	for _, member := range c.Snapshot() {
		if member.UserID == userID {
			continue
		}
		m.bcast.Deliver(member.UserID, "chat."+kind, map[string]any{"chat.id": c.ID, "user.id": userID})
	}
}

// Say splits text on newlines and emits one broadcast per non-empty
// line, per spec.md §4.7.
func (m *Manager) Say(chatID uint32, sender Member, text string, isMe bool) error {
	c, err := m.Get(chatID)
	if err != nil {
		return err
	}
	if !c.IsMember(sender.UserID) {
		return ErrNotOnChat
	}
	event := "chat.say"
	if isMe {
		event = "chat.me"
	}
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		for _, member := range c.Snapshot() {
			m.bcast.Deliver(member.UserID, event, map[string]any{
				"chat.id": c.ID, "user.id": sender.UserID, "text": line,
			})
		}
	}
	return nil
}
