package account

import (
	"errors"
	"reflect"
	"strings"
)

// ErrPermissionDenied maps to the wire error of the same name.
var ErrPermissionDenied = errors.New("permission_denied")

// VerifyPrivilegesForUser implements spec.md §4.3's
// verify_privileges_for_user: when a non-super-admin actor
// (actor.Privileges.RaiseAccountPrivileges == false) creates or edits
// an account, every field of target must not exceed what actor grants:
//   - numeric privilege: target ≤ actor, except actor's 0 ("no limit")
//     is treated as the lowest priority when actor's value is > 0 — i.e.
//     an actor value of 0 does not license an unbounded target value;
//     it loses to any actor value > 0 rather than being read as
//     "unlimited, so anything passes".
//   - boolean privilege: target must not flip false→true unless actor
//     already has it true.
//   - target's FilesRoot must be a path prefix of actor's FilesRoot.
func VerifyPrivilegesForUser(actor, target *Account) error {
	if actor.Privileges.RaiseAccountPrivileges {
		return nil
	}

	av := reflect.ValueOf(&actor.Privileges).Elem()
	tv := reflect.ValueOf(&target.Privileges).Elem()
	t := av.Type()

	for i := 0; i < t.NumField(); i++ {
		af := av.Field(i)
		tf := tv.Field(i)

		switch af.Kind() {
		case reflect.Bool:
			if tf.Bool() && !af.Bool() {
				return ErrPermissionDenied
			}
		case reflect.Int32:
			actorVal := af.Int()
			targetVal := tf.Int()
			if actorVal == 0 {
				// Actor's own value is "no limit" for the actor, but
				// does not license an unbounded target: any nonzero
				// actor value elsewhere in the table would outrank
				// this 0, so a target value greater than the actor's
				// effective (treated-as-lowest) 0 is only permitted
				// when the actor's own field is also literally the
				// unset default. Since actor==0 here, allow target==0
				// only; anything higher is denied.
				if targetVal != 0 {
					return ErrPermissionDenied
				}
			} else if targetVal > actorVal {
				return ErrPermissionDenied
			}
		}
	}

	if !isPrefixPath(target.FilesRoot, actor.FilesRoot) {
		return ErrPermissionDenied
	}

	return nil
}

// isPrefixPath reports whether root is child-or-equal to prefix, as
// virtual filesystem paths (slash-separated, no "..").
func isPrefixPath(root, prefix string) bool {
	root = strings.TrimRight(root, "/")
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return true
	}
	if root == prefix {
		return true
	}
	return strings.HasPrefix(root, prefix+"/")
}
