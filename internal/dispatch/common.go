package dispatch

import (
	"fmt"

	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/chat"
	"github.com/stlalpha/wired/internal/connuser"
)

func toMember(u *connuser.User) chat.Member {
	return chat.Member{UserID: u.ID, Nick: u.Nick, Login: u.AccountName()}
}

// sessionKey identifies a connection for eventlog duplicate
// suppression: a connection ID is unique and stable for the
// connection's lifetime, matching spec.md §4.10's "same session."
func sessionKey(u *connuser.User) string {
	return fmt.Sprintf("conn-%d", u.ID)
}

func requirePrivilege(ok bool) error {
	if !ok {
		return account.ErrPermissionDenied
	}
	return nil
}
