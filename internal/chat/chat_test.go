package chat

import "testing"

type recordingBroadcaster struct {
	events []string
}

func (r *recordingBroadcaster) Deliver(userID int32, event string, args map[string]any) {
	r.events = append(r.events, event)
}

func TestManager_PublicChatAlwaysID1(t *testing.T) {
	m := NewManager(&recordingBroadcaster{})
	if m.Public().ID != PublicChatID {
		t.Fatalf("expected public chat id %d, got %d", PublicChatID, m.Public().ID)
	}
}

func TestManager_PrivateChatDestroyedWhenEmpty(t *testing.T) {
	m := NewManager(&recordingBroadcaster{})
	c := m.CreateChat()
	c.Invite(1)

	if _, err := m.Join(c.ID, Member{UserID: 1, Nick: "alice"}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := m.Leave(c.ID, 1); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	if _, err := m.Get(c.ID); err != ErrChatNotFound {
		t.Fatalf("expected chat to be destroyed after last member leaves, got err=%v", err)
	}
}

func TestManager_JoinRequiresInvitationForPrivateChat(t *testing.T) {
	m := NewManager(&recordingBroadcaster{})
	c := m.CreateChat()

	if _, err := m.Join(c.ID, Member{UserID: 2, Nick: "bob"}); err != ErrNotInvited {
		t.Fatalf("expected not_invited_to_chat, got %v", err)
	}
}

func TestManager_SayRejectsNonMember(t *testing.T) {
	m := NewManager(&recordingBroadcaster{})
	if err := m.Say(PublicChatID, Member{UserID: 99}, "hi", false); err != ErrNotOnChat {
		t.Fatalf("expected not_on_chat, got %v", err)
	}
}

func TestManager_SaySplitsLinesAndSkipsEmpty(t *testing.T) {
	b := &recordingBroadcaster{}
	m := NewManager(b)
	if _, err := m.Join(PublicChatID, Member{UserID: 1, Nick: "alice"}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := m.Say(PublicChatID, Member{UserID: 1}, "hello\n\nworld", false); err != nil {
		t.Fatalf("Say: %v", err)
	}
	count := 0
	for _, e := range b.events {
		if e == "chat.say" {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 chat.say broadcasts for 2 non-empty lines, got %d", count)
	}
}
