package dispatch

import (
	"errors"

	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/schema"
)

var ErrUserNotFound = errors.New("user_not_found")

func handleSetNick(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	nick, ok := msg.String("user.nick")
	if !ok {
		return nil, fieldError("user.nick")
	}
	u.SetNickColor(nick, u.Color)
	broadcastUserChange(svc, u)
	return okayMessage(), nil
}

func handleSetStatus(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	status, _ := msg.String("user.status")
	u.SetStatusField(status)
	broadcastUserChange(svc, u)
	return okayMessage(), nil
}

func handleSetIcon(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	icon, _ := msg.Bytes("user.icon")
	u.SetIconField(icon)
	broadcastUserChange(svc, u)
	return okayMessage(), nil
}

func handleSetIdle(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	idle, _ := msg.Bool("user.idle")
	u.SetIdleField(idle)
	broadcastUserChange(svc, u)
	return okayMessage(), nil
}

func handleGetUserInfo(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	id, _ := msg.Uint32("user.id")
	target := svc.Registry.Get(int32(id))
	if target == nil {
		return nil, ErrUserNotFound
	}
	info := target.Snapshot()
	reply := schema.NewMessage("user.get_info")
	reply.SetUint32("user.id", uint32(info.ID))
	reply.SetString("user.nick", info.Nick)
	reply.SetString("user.status", info.Status)
	svc.Events.Record(sessionKey(u), "user.got_info", info.Login, u.Nick, u.AccountName(), u.RemoteIP)
	return reply, nil
}

func handleGetUsers(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	chatID, _ := msg.Uint32("chat.id")
	c, err := svc.Chat.Get(chatID)
	if err != nil {
		return nil, err
	}
	reply := schema.NewMessage("user.get_users")
	var nicks []string
	for _, m := range c.Snapshot() {
		nicks = append(nicks, m.Nick)
	}
	reply.SetList("user.nick", nicks)
	svc.Events.Record(sessionKey(u), "user.got_users", "", u.Nick, u.AccountName(), u.RemoteIP)
	return reply, nil
}

func handleDisconnectUser(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.Kick {
		return nil, account.ErrPermissionDenied
	}
	id, _ := msg.Uint32("user.id")
	target := svc.Registry.Get(int32(id))
	if target == nil {
		return nil, ErrUserNotFound
	}
	target.Disconnect("disconnected by " + acc.Name)
	svc.Registry.Unregister(target.ID)
	return okayMessage(), nil
}

func handleBanUser(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.Ban {
		return nil, account.ErrPermissionDenied
	}
	id, _ := msg.Uint32("user.id")
	target := svc.Registry.Get(int32(id))
	if target == nil {
		return nil, ErrUserNotFound
	}
	if err := svc.Bans.AddBan(target.RemoteIP, nil); err != nil {
		return nil, err
	}
	target.Disconnect("banned by " + acc.Name)
	svc.Registry.Unregister(target.ID)
	return okayMessage(), nil
}

func broadcastUserChange(svc *Services, u *connuser.User) {
	info := u.Snapshot()
	for _, chatID := range u.SubscribedChats() {
		c, err := svc.Chat.Get(chatID)
		if err != nil {
			continue
		}
		for _, m := range c.Snapshot() {
			if m.UserID == u.ID {
				continue
			}
			svc.Registry.Deliver(m.UserID, "user.user_info", map[string]any{
				"id": info.ID, "nick": info.Nick, "status": info.Status,
			})
		}
	}
}
