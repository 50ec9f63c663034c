package dispatch

import (
	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/schema"
)

func init() {
	register("message.send_message", connuser.StageLoggedIn, handleSendMessage)
	register("message.send_broadcast", connuser.StageLoggedIn, handleSendBroadcast)
}

// handleSendMessage delivers a private message by re-dispatching the
// same message name to the recipient's connection, the wire reusing
// one message type for both "send" and "receive" per spec.md §6.
func handleSendMessage(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.SendPrivateMessage {
		return nil, account.ErrPermissionDenied
	}
	targetID, _ := msg.Uint32("user.id")
	text, _ := msg.String("message.message")

	target := svc.Registry.Get(int32(targetID))
	if target == nil {
		return nil, ErrUserNotFound
	}
	svc.Registry.Deliver(int32(targetID), "message.send_message", map[string]any{
		"user.id":         u.ID,
		"message.message": text,
	})
	return okayMessage(), nil
}

// handleSendBroadcast delivers message.send_broadcast to every
// connected session, per spec.md §4.4.
func handleSendBroadcast(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.BroadcastMessage {
		return nil, account.ErrPermissionDenied
	}
	text, _ := msg.String("message.message")
	for _, other := range svc.Registry.ListActive() {
		other.Notify("message.send_broadcast", map[string]any{
			"message.broadcast": []string{text},
		})
	}
	return okayMessage(), nil
}
