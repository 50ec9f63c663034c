package account

import "time"

// Account is a single row of the users or groups table (spec.md §3).
// A Group account leaves the User-only fields at their zero value.
type Account struct {
	Kind Kind

	Name         string
	Password     string // 40-char hex SHA-1; empty stored as SHA1("")
	FullName     string
	Comment      string
	Color        Color

	CreationTime     time.Time
	ModificationTime time.Time
	LoginTime        time.Time
	EditedBy         string

	Group        string   // primary group (users only)
	Groups       []string // additional groups (users only)
	FilesRoot    string   // sub-root under the real files root (users only)

	Downloads            int32
	DownloadTransferred  int64
	Uploads              int32
	UploadTransferred    int64

	Privileges Privileges
}

// SHA1Empty is SHA1("") — the canonical stored value for an account
// created with an empty password, per spec.md §3.
const SHA1Empty = "da39a3ee5e6b4b0d3255bfef95601890afd80709"

// IsGroup reports whether this is a group account.
func (a *Account) IsGroup() bool { return a.Kind == KindGroup }
