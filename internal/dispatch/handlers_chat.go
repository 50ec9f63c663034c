package dispatch

import (
	"time"

	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/chat"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/schema"
)

func init() {
	register("chat.join_chat", connuser.StageLoggedIn, handleJoinChat)
	register("chat.leave_chat", connuser.StageLoggedIn, handleLeaveChat)
	register("chat.set_topic", connuser.StageLoggedIn, handleSetTopic)
	register("chat.send_say", connuser.StageLoggedIn, handleSendSay)
	register("chat.send_me", connuser.StageLoggedIn, handleSendMe)
	register("chat.create_chat", connuser.StageLoggedIn, handleCreateChat)
	register("chat.invite_user", connuser.StageLoggedIn, handleInviteUser)
	register("chat.decline_invitation", connuser.StageLoggedIn, handleDeclineInvitation)
	register("chat.kick_user", connuser.StageLoggedIn, handleKickUser)
}

// handleJoinChat joins u to the chat, then streams the roster as one
// chat.user_list per member terminated by chat.user_list.done, plus
// the chat's topic if one is set, per spec.md §4.1/end-to-end
// scenario 3.
func handleJoinChat(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	id, _ := msg.Uint32("chat.id")
	c, err := svc.Chat.Join(id, toMember(u))
	if err != nil {
		return nil, err
	}
	u.SubscribeChat(id)

	for _, m := range c.Snapshot() {
		info := connuser.Info{ID: m.UserID, Nick: m.Nick, Login: m.Login}
		if member := svc.Registry.Get(m.UserID); member != nil {
			info = member.Snapshot()
		}
		args := map[string]any{
			"chat.id":     id,
			"user.id":     uint32(info.ID),
			"user.nick":   info.Nick,
			"user.login":  info.Login,
			"user.color":  int32(info.Color),
			"user.status": info.Status,
			"user.idle":   info.IsIdle,
		}
		if len(info.Icon) > 0 {
			args["user.icon"] = info.Icon
		}
		u.Notify("chat.user_list", args)
	}
	u.Notify("chat.user_list.done", map[string]any{"chat.id": id})

	if topic := c.GetTopic(); topic != nil && topic.Text != "" {
		u.Notify("chat.topic", map[string]any{
			"chat.id":          id,
			"chat.topic.text":  topic.Text,
			"chat.topic.time":  topic.Time,
			"chat.topic.nick":  topic.Nick,
			"chat.topic.login": topic.Login,
			"chat.topic.ip":    topic.IP,
		})
	}

	return okayMessage(), nil
}

func handleLeaveChat(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	id, _ := msg.Uint32("chat.id")
	if err := svc.Chat.Leave(id, u.ID); err != nil {
		return nil, err
	}
	u.UnsubscribeChat(id)
	return okayMessage(), nil
}

func handleSetTopic(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	id, _ := msg.Uint32("chat.id")
	text, _ := msg.String("chat.topic.text")
	c, err := svc.Chat.Get(id)
	if err != nil {
		return nil, err
	}
	c.SetTopic(chat.Topic{
		Text:  text,
		Time:  time.Now(),
		Nick:  u.Nick,
		Login: u.AccountName(),
		IP:    u.RemoteIP,
	})
	return okayMessage(), nil
}

func handleSendSay(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	id, _ := msg.Uint32("chat.id")
	text, _ := msg.String("chat.say")
	if err := svc.Chat.Say(id, toMember(u), text, false); err != nil {
		return nil, err
	}
	return nil, nil
}

func handleSendMe(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	id, _ := msg.Uint32("chat.id")
	text, _ := msg.String("chat.me")
	if err := svc.Chat.Say(id, toMember(u), text, true); err != nil {
		return nil, err
	}
	return nil, nil
}

func handleCreateChat(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	c := svc.Chat.CreateChat()
	if _, err := svc.Chat.Join(c.ID, toMember(u)); err != nil {
		return nil, err
	}
	u.SubscribeChat(c.ID)
	reply := schema.NewMessage("chat.create_chat")
	reply.SetUint32("chat.id", c.ID)
	return reply, nil
}

func handleInviteUser(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	id, _ := msg.Uint32("chat.id")
	targetID, _ := msg.Uint32("user.id")
	c, err := svc.Chat.Get(id)
	if err != nil {
		return nil, err
	}
	c.Invite(int32(targetID))
	svc.Registry.Deliver(int32(targetID), "chat.invite_user", map[string]any{"chat.id": id, "from": u.Nick})
	return okayMessage(), nil
}

func handleDeclineInvitation(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	id, _ := msg.Uint32("chat.id")
	c, err := svc.Chat.Get(id)
	if err != nil {
		return nil, err
	}
	c.DeclineInvitation(u.ID)
	return okayMessage(), nil
}

func handleKickUser(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.Kick {
		return nil, account.ErrPermissionDenied
	}
	id, _ := msg.Uint32("chat.id")
	targetID, _ := msg.Uint32("user.id")
	if err := svc.Chat.Leave(id, int32(targetID)); err != nil {
		return nil, err
	}
	if target := svc.Registry.Get(int32(targetID)); target != nil {
		target.UnsubscribeChat(id)
		target.Notify("chat.kick_user", map[string]any{"chat.id": id, "by": u.Nick})
	}
	return okayMessage(), nil
}
