package account

// FieldKinds names the account kinds (spec.md §3) a field can appear
// on. This mirrors WD_ACCOUNT_FIELD_USER / _GROUP / _PRIVILEGE /
// _USER_LIST / _GROUP_LIST bit flags in original_source/wired/accounts.h,
// expressed as a Go bitmask instead of C #defines.
type FieldKinds uint8

const (
	FieldUser FieldKinds = 1 << iota
	FieldGroup
	FieldPrivilege
	FieldUserList
	FieldGroupList
)

// Field describes one wire/column-mapped account field: per design
// note §9 ("duck-typed dictionary-of-anything for account fields"),
// this table is the fixed record's sidecar description of wire name,
// column name, kind membership and required-ness, in place of the
// source's runtime dictionary lookups. Nothing in the server calls
// ForKind or reads Fields, and the WireName values below
// (wired.account.*) are not the account.* field names internal/schema
// declares.
type Field struct {
	WireName string
	Column   string
	Kinds    FieldKinds
	Required bool
}

// Fields is the closed set of wire/column-mapped account fields.
// Privilege fields are not enumerated individually here: Privileges is
// walked by reflection in resolve.go/verify.go, and all privileges
// travel together as one JSON blob in the account.privileges field.
var Fields = []Field{
	{WireName: "wired.account.name", Column: "name", Kinds: FieldUser | FieldGroup | FieldUserList | FieldGroupList, Required: true},
	{WireName: "wired.account.full_name", Column: "full_name", Kinds: FieldUser | FieldGroup},
	{WireName: "wired.account.comment", Column: "comment", Kinds: FieldUser | FieldGroup},
	{WireName: "wired.account.color", Column: "color", Kinds: FieldUser | FieldGroup},
	{WireName: "wired.account.password", Column: "password", Kinds: FieldUser, Required: true},
	{WireName: "wired.account.group", Column: "group", Kinds: FieldUser},
	{WireName: "wired.account.groups", Column: "groups", Kinds: FieldUser},
	{WireName: "wired.account.files", Column: "files_root", Kinds: FieldUser | FieldGroup},
	{WireName: "wired.account.creation_time", Column: "creation_time", Kinds: FieldUser | FieldGroup},
	{WireName: "wired.account.modification_time", Column: "modification_time", Kinds: FieldUser | FieldGroup},
	{WireName: "wired.account.login_time", Column: "login_time", Kinds: FieldUser},
	{WireName: "wired.account.edited_by", Column: "edited_by", Kinds: FieldUser | FieldGroup},
	{WireName: "wired.account.downloads", Column: "downloads", Kinds: FieldUser},
	{WireName: "wired.account.download_transferred", Column: "download_transferred", Kinds: FieldUser},
	{WireName: "wired.account.uploads", Column: "uploads", Kinds: FieldUser},
	{WireName: "wired.account.upload_transferred", Column: "upload_transferred", Kinds: FieldUser},
}

// ForKind returns only the fields applicable to the given account kind.
func ForKind(k FieldKinds) []Field {
	var out []Field
	for _, f := range Fields {
		if f.Kinds&k != 0 {
			out = append(out, f)
		}
	}
	return out
}
