package dispatch

import (
	"time"

	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/schema"
)

func init() {
	register("banlist.get_bans", connuser.StageLoggedIn, handleGetBans)
	register("banlist.add_ban", connuser.StageLoggedIn, handleAddBan)
	register("banlist.delete_ban", connuser.StageLoggedIn, handleDeleteBan)
}

func handleGetBans(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.GetBanlist {
		return nil, account.ErrPermissionDenied
	}
	rows, err := svc.Bans.List()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		args := map[string]any{"banlist.ip": row.IP}
		if row.ExpirationTime != nil {
			args["banlist.expiration"] = *row.ExpirationTime
		}
		u.Notify("banlist.get_bans", args)
	}
	return okayMessage(), nil
}

func handleAddBan(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.AddBans {
		return nil, account.ErrPermissionDenied
	}
	ip, _ := msg.String("banlist.ip")
	var expiration *time.Time
	if t, ok := msg.Date("banlist.expiration"); ok {
		expiration = &t
	}
	if err := svc.Bans.AddBan(ip, expiration); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleDeleteBan(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.DeleteBans {
		return nil, account.ErrPermissionDenied
	}
	ip, _ := msg.String("banlist.ip")
	if err := svc.Bans.DeleteBan(ip); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}
