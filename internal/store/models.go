// Package store is the SQL-backed persistence layer spec.md §6 requires:
// a single database file holding the versions, users, groups, banlist,
// topic, boards, threads, posts, index, index_metadata, events, and
// servers tables. Grounded on the teacher's JSON-file manager pattern
// (internal/user/manager.go, internal/message/manager.go) for the
// surrounding load/save API shape, generalized to gorm.io/gorm +
// gorm.io/driver/sqlite (the SQL stack the nabbar-golib pack repo
// carries across four dialects) in place of the teacher's os.ReadFile
// JSON blobs, per spec.md's "SQL-backed persistence" requirement.
package store

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current schema version recorded in the versions
// table, per spec.md §6 "Each has a monotonically increasing schema
// version ... component startup consults it and applies additive
// migrations."
const SchemaVersion = 1

type VersionRow struct {
	Component string `gorm:"primaryKey"`
	Version   int
}

type UserRow struct {
	Name             string `gorm:"primaryKey"`
	Password         string
	FullName         string
	Comment          string
	Color            int32
	Group            *string // nil = no primary group; NULLed by group delete trigger-equivalent
	Groups           string  // ASCII FS (0x1C) delimited, per spec.md §4.3
	FilesRoot        string
	CreationTime     time.Time
	ModificationTime time.Time
	LoginTime        time.Time
	EditedBy         string

	Downloads           int32
	DownloadTransferred int64
	Uploads             int32
	UploadTransferred   int64

	PrivilegesJSON string // serialized Privileges; see store/privileges_codec.go
}

type GroupRow struct {
	Name             string `gorm:"primaryKey"`
	FullName         string
	Comment          string
	Color            int32
	FilesRoot        string
	CreationTime     time.Time
	ModificationTime time.Time
	EditedBy         string
	PrivilegesJSON   string
}

type BanRow struct {
	IP             string `gorm:"primaryKey"`
	ExpirationTime *time.Time
}

type TopicRow struct {
	ChatID uint32 `gorm:"primaryKey"`
	Text   string
	Time   time.Time
	Nick   string
	Login  string
	IP     string
}

type BoardRow struct {
	Name  string `gorm:"primaryKey"`
	Owner string
	Group string
	Mode  int32 // 9-bit rwx-less mode, per spec.md §3
}

type ThreadRow struct {
	ID               uuid.UUID `gorm:"primaryKey;type:text"`
	Board            string    `gorm:"index"`
	Subject          string
	Body             string
	CreationTime     time.Time
	ModificationTime *time.Time
	AuthorNick       string
	AuthorLogin      string
	AuthorIP         string
	Icon             []byte
}

type PostRow struct {
	ID               uuid.UUID `gorm:"primaryKey;type:text"`
	Thread           uuid.UUID `gorm:"index"`
	Body             string
	CreationTime     time.Time
	ModificationTime *time.Time
	AuthorNick       string
	AuthorLogin      string
	AuthorIP         string
	Icon             []byte
}

type IndexRow struct {
	ID          uint32 `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"index"`
	VirtualPath string `gorm:"index"`
	RealPath    string
	IsAlias     bool
}

type IndexMetadataRow struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

type EventRow struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Name       string
	Parameters string // joined with 0x1C, same convention as Groups
	Time       time.Time
	Nick       string
	Login      string
	IP         string
}

type ServerRow struct {
	IP               string `gorm:"primaryKey"`
	Port             uint32 `gorm:"primaryKey"`
	CipherName       string
	CipherKey        []byte
	CipherIV         []byte
	Category         string
	URL              string
	Name             string
	Description      string
	Users            uint32
	Files            uint32
	Size             int64
	RegisterTime     time.Time
	LastUpdateTime   time.Time
	Active           bool
}
