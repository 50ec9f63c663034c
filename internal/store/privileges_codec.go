package store

import (
	"encoding/json"

	"github.com/stlalpha/wired/internal/account"
)

// EncodePrivileges and DecodePrivileges convert account.Privileges
// to/from the JSON blob persisted in UserRow/GroupRow.PrivilegesJSON.
// A single JSON column keeps the ~70-field closed set spec.md §3
// describes without a 70-column table. The same blob travels in the
// account.privileges wire field; account/fields.go's table lists no
// privilege fields and is not consulted here.
func EncodePrivileges(p account.Privileges) string {
	b, _ := json.Marshal(p)
	return string(b)
}

func DecodePrivileges(s string) account.Privileges {
	var p account.Privileges
	if s == "" {
		return p
	}
	_ = json.Unmarshal([]byte(s), &p)
	return p
}

const groupListSeparator = "\x1c"

func EncodeGroups(groups []string) string {
	out := ""
	for i, g := range groups {
		if i > 0 {
			out += groupListSeparator
		}
		out += g
	}
	return out
}

func DecodeGroups(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == groupListSeparator[0] {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
