package account

import "reflect"

// Resolve applies group privilege override onto a loaded user account
// per spec.md §4.3: "the server reads the user row, then if the user
// has a primary group, overlays group privileges onto any user
// privileges that are absent or false. Numeric group values also
// overwrite user values when the user value is missing. The name is
// never overridden. Group override never elevates a field that was
// explicitly set to true on the user to a lower value."
//
// Open Question (spec.md §9): the source's override predicate is
//
//	!equal("name") && (mask & PRIVILEGE) || equal("files") || equal("color")
//
// written without parentheses; the comment above it in
// original_source/wired/accounts.c suggests the tight binding of &&,
// i.e. (!equal("name") && (mask&PRIVILEGE)) || equal("files") ||
// equal("color"). That reading is adopted here. In this codebase the
// distinction is moot in practice — "name" is never equal to "files"
// or "color" — but the tight-binding reading is what's implemented,
// matching the source's own hint. Name is not a Privileges field at
// all in this model, so it is excluded from the override walk
// unconditionally; Color and FilesRoot are applied unconditionally
// (the "equal(files) || equal(color)" disjuncts), independent of the
// privilege mask.
func Resolve(user *Account, group *Account) *Account {
	resolved := *user
	if group == nil || user.Group == "" {
		return &resolved
	}

	overridePrivileges(&resolved.Privileges, &group.Privileges)

	if resolved.FilesRoot == "" {
		resolved.FilesRoot = group.FilesRoot
	}
	if resolved.Color == ColorDefault {
		resolved.Color = group.Color
	}

	return &resolved
}

// overridePrivileges walks every field of Privileges and, for bools,
// promotes the group's true where the user's is false; for int32s,
// promotes the group's non-zero where the user's is zero.
func overridePrivileges(user, group *Privileges) {
	uv := reflect.ValueOf(user).Elem()
	gv := reflect.ValueOf(group).Elem()
	t := uv.Type()

	for i := 0; i < t.NumField(); i++ {
		uf := uv.Field(i)
		gf := gv.Field(i)

		switch uf.Kind() {
		case reflect.Bool:
			if !uf.Bool() && gf.Bool() {
				uf.SetBool(true)
			}
		case reflect.Int32:
			if uf.Int() == 0 && gf.Int() != 0 {
				uf.SetInt(gf.Int())
			}
		}
	}
}
