package account

import "testing"

func TestResolve_GroupOverridesAbsentOrFalse(t *testing.T) {
	group := &Account{
		Kind: KindGroup,
		Name: "staff",
		Privileges: Privileges{
			Kick:               true,
			Ban:                true,
			DownloadSpeedLimit: 500,
		},
	}
	user := &Account{
		Kind:  KindUser,
		Name:  "alice",
		Group: "staff",
		Privileges: Privileges{
			Kick: false, // absent -> should pick up group's true
			Ban:  false,
		},
	}

	resolved := Resolve(user, group)

	if !resolved.Privileges.Kick {
		t.Error("expected Kick to be overridden to true from group")
	}
	if !resolved.Privileges.Ban {
		t.Error("expected Ban to be overridden to true from group")
	}
	if resolved.Privileges.DownloadSpeedLimit != 500 {
		t.Errorf("expected DownloadSpeedLimit 500, got %d", resolved.Privileges.DownloadSpeedLimit)
	}
}

func TestResolve_UserTrueNeverDowngraded(t *testing.T) {
	group := &Account{
		Kind: KindGroup,
		Name: "guests",
		Privileges: Privileges{
			Download: false,
		},
	}
	user := &Account{
		Kind:  KindUser,
		Name:  "bob",
		Group: "guests",
		Privileges: Privileges{
			Download: true,
		},
	}

	resolved := Resolve(user, group)

	if !resolved.Privileges.Download {
		t.Error("user's explicit true must never be downgraded by group override")
	}
}

func TestResolve_NameNeverOverridden(t *testing.T) {
	group := &Account{Kind: KindGroup, Name: "staff"}
	user := &Account{Kind: KindUser, Name: "alice", Group: "staff"}

	resolved := Resolve(user, group)

	if resolved.Name != "alice" {
		t.Errorf("expected name to remain 'alice', got %q", resolved.Name)
	}
}

func TestVerifyPrivilegesForUser_CannotElevateBoolean(t *testing.T) {
	actor := &Account{Privileges: Privileges{CreateAccounts: true}}
	target := &Account{Privileges: Privileges{CreateAccounts: true, DeleteAccounts: true}}

	if err := VerifyPrivilegesForUser(actor, target); err != ErrPermissionDenied {
		t.Errorf("expected permission_denied when target gains a privilege actor lacks, got %v", err)
	}
}

func TestVerifyPrivilegesForUser_NumericCappedByActor(t *testing.T) {
	actor := &Account{Privileges: Privileges{DownloadSpeedLimit: 100}}
	target := &Account{Privileges: Privileges{DownloadSpeedLimit: 200}}

	if err := VerifyPrivilegesForUser(actor, target); err != ErrPermissionDenied {
		t.Errorf("expected permission_denied when target numeric exceeds actor's, got %v", err)
	}

	target.Privileges.DownloadSpeedLimit = 50
	if err := VerifyPrivilegesForUser(actor, target); err != nil {
		t.Errorf("expected no error for target <= actor, got %v", err)
	}
}

func TestVerifyPrivilegesForUser_FilesRootMustBePrefix(t *testing.T) {
	actor := &Account{FilesRoot: "/users/alice"}
	target := &Account{FilesRoot: "/other"}

	if err := VerifyPrivilegesForUser(actor, target); err != ErrPermissionDenied {
		t.Errorf("expected permission_denied for non-prefix files root, got %v", err)
	}

	target.FilesRoot = "/users/alice/sub"
	if err := VerifyPrivilegesForUser(actor, target); err != nil {
		t.Errorf("expected no error for prefix files root, got %v", err)
	}
}

func TestVerifyPrivilegesForUser_SuperAdminBypasses(t *testing.T) {
	actor := &Account{Privileges: Privileges{RaiseAccountPrivileges: true}}
	target := &Account{Privileges: Privileges{CreateAccounts: true, DeleteAccounts: true}}

	if err := VerifyPrivilegesForUser(actor, target); err != nil {
		t.Errorf("expected super-admin actor to bypass verification, got %v", err)
	}
}
