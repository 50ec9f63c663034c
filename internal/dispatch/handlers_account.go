package dispatch

import (
	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/accountsvc"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/schema"
	"github.com/stlalpha/wired/internal/store"
)

func init() {
	register("account.change_password", connuser.StageLoggedIn, handleChangePassword)
	register("account.list_users", connuser.StageLoggedIn, handleListUsers)
	register("account.list_groups", connuser.StageLoggedIn, handleListGroups)
	register("account.read_user", connuser.StageLoggedIn, handleReadUser)
	register("account.read_group", connuser.StageLoggedIn, handleReadGroup)
	register("account.create_user", connuser.StageLoggedIn, handleCreateUser)
	register("account.create_group", connuser.StageLoggedIn, handleCreateGroup)
	register("account.edit_user", connuser.StageLoggedIn, handleEditUser)
	register("account.edit_group", connuser.StageLoggedIn, handleEditGroup)
	register("account.delete_user", connuser.StageLoggedIn, handleDeleteUser)
	register("account.delete_group", connuser.StageLoggedIn, handleDeleteGroup)
	register("account.subscribe_accounts", connuser.StageLoggedIn, handleSubscribeAccounts)
	register("account.unsubscribe_accounts", connuser.StageLoggedIn, handleUnsubscribeAccounts)
	register("account.privileges", connuser.StageLoggedIn, handleGetPrivileges)
}

func accountToMessage(a *account.Account) *schema.Message {
	reply := schema.NewMessage("account.read_user")
	reply.SetString("account.name", a.Name)
	reply.SetString("account.full_name", a.FullName)
	reply.SetString("account.comment", a.Comment)
	reply.SetInt32("account.color", int32(a.Color))
	reply.SetString("account.group", a.Group)
	reply.SetList("account.groups", a.Groups)
	reply.SetBytes("account.privileges", []byte(store.EncodePrivileges(a.Privileges)))
	reply.SetBool("account.is_group", a.IsGroup())
	return reply
}

func messageToAccount(msg *schema.Message, kind account.Kind) *account.Account {
	a := &account.Account{Kind: kind}
	a.Name, _ = msg.String("account.name")
	a.FullName, _ = msg.String("account.full_name")
	a.Comment, _ = msg.String("account.comment")
	if c, ok := msg.Int32("account.color"); ok {
		a.Color = account.Color(c)
	}
	a.Group, _ = msg.String("account.group")
	a.Groups, _ = msg.List("account.groups")
	if pw, ok := msg.String("account.password"); ok {
		a.Password = accountsvc.HashPassword(pw)
	}
	if blob, ok := msg.Bytes("account.privileges"); ok {
		a.Privileges = store.DecodePrivileges(string(blob))
	}
	return a
}

func handleChangePassword(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	name, _ := msg.String("account.name")
	password, _ := msg.String("account.password")
	acc := u.GetAccount()
	if acc == nil {
		return nil, account.ErrPermissionDenied
	}
	if name != acc.Name && !acc.Privileges.EditAccounts {
		return nil, account.ErrPermissionDenied
	}
	if err := svc.Accounts.ChangePassword(name, password); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

// handleListUsers streams one account.read_user-shaped reply per row,
// terminated by account.list_users.done, per spec.md §4.3
// ("stream rows, one reply message per row, terminated by a `.done`
// message").
func handleListUsers(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.ListAccounts {
		return nil, account.ErrPermissionDenied
	}
	err := svc.Accounts.ListUsers(func(a *account.Account) error {
		reply := accountToMessage(a)
		u.Notify(reply.Name, messageArgs(reply))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schema.NewMessage("account.list_users.done"), nil
}

func handleListGroups(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.ListAccounts {
		return nil, account.ErrPermissionDenied
	}
	err := svc.Accounts.ListGroups(func(a *account.Account) error {
		reply := accountToMessage(a)
		reply.Name = "account.read_group"
		u.Notify(reply.Name, messageArgs(reply))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schema.NewMessage("account.list_groups.done"), nil
}

// messageArgs unwraps a schema.Message back into the args map
// u.Notify expects, so accountToMessage's row-builder can be reused
// for both direct replies (read_user) and streamed pushes
// (list_users).
func messageArgs(m *schema.Message) map[string]any {
	return m.Values
}

func handleReadUser(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.ReadAccounts {
		return nil, account.ErrPermissionDenied
	}
	name, _ := msg.String("account.name")
	target, err := svc.Accounts.ReadUser(name)
	if err != nil {
		return nil, err
	}
	return accountToMessage(target), nil
}

func handleReadGroup(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.ReadAccounts {
		return nil, account.ErrPermissionDenied
	}
	name, _ := msg.String("account.name")
	target, err := svc.Accounts.ReadGroup(name)
	if err != nil {
		return nil, err
	}
	reply := accountToMessage(target)
	reply.Name = "account.read_group"
	return reply, nil
}

func handleCreateUser(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.CreateAccounts {
		return nil, account.ErrPermissionDenied
	}
	target := messageToAccount(msg, account.KindUser)
	if target.Password == "" {
		target.Password = account.SHA1Empty
	}
	if err := svc.Accounts.CreateUser(acc, target); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleCreateGroup(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.CreateAccounts {
		return nil, account.ErrPermissionDenied
	}
	target := messageToAccount(msg, account.KindGroup)
	if err := svc.Accounts.CreateGroup(acc, target); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleEditUser(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.EditAccounts {
		return nil, account.ErrPermissionDenied
	}
	name, _ := msg.String("account.name")
	newName, _ := msg.String("account.new_name")
	target := messageToAccount(msg, account.KindUser)
	if err := svc.Accounts.EditUser(acc, name, newName, target); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleEditGroup(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.EditAccounts {
		return nil, account.ErrPermissionDenied
	}
	name, _ := msg.String("account.name")
	newName, _ := msg.String("account.new_name")
	target := messageToAccount(msg, account.KindGroup)
	if err := svc.Accounts.EditGroup(acc, name, newName, target); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleDeleteUser(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.DeleteAccounts {
		return nil, account.ErrPermissionDenied
	}
	name, _ := msg.String("account.name")
	disconnect, _ := msg.Bool("account.disconnect_users")
	if err := svc.Accounts.DeleteUser(name, disconnect); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleDeleteGroup(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.DeleteAccounts {
		return nil, account.ErrPermissionDenied
	}
	name, _ := msg.String("account.name")
	if err := svc.Accounts.DeleteGroup(name); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleSubscribeAccounts(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	u.SetAccountsSubscribed(true)
	return okayMessage(), nil
}

func handleUnsubscribeAccounts(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	u.SetAccountsSubscribed(false)
	return okayMessage(), nil
}

func handleGetPrivileges(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil {
		return nil, account.ErrPermissionDenied
	}
	return PrivilegesMessage(acc), nil
}

// PrivilegesMessage builds the account.privileges push that
// end-to-end scenario 2 requires after a successful login reply;
// account.privileges requests reuse it directly.
func PrivilegesMessage(acc *account.Account) *schema.Message {
	reply := schema.NewMessage("account.privileges")
	reply.SetBytes("account.privileges", []byte(store.EncodePrivileges(acc.Privileges)))
	return reply
}
