// Package vfs implements spec.md §4.4: the virtual filesystem rooted
// per-account, directory listing with sidecar metadata, drop-box
// ACLs, comments/labels, atomic moves, and directory-change
// notification. Grounded on the teacher's internal/file package
// (FileArea/FileRecord JSON-sidecar model) generalized from a fixed
// set of named "file areas" to Wired's single chrooted-per-account
// tree with `.wired/*` sidecar files, per original_source/wired/files.c.
package vfs

import "time"

// EntryType mirrors spec.md §3's file.type enum.
type EntryType int32

const (
	TypeFile     EntryType = 0
	TypeDir      EntryType = 1
	TypeUploads  EntryType = 2
	TypeDropBox  EntryType = 3
)

// Entry is one directory-listing row, per spec.md §4.4: "path, type,
// sizes, creation/modification time, link/executable/label flags, and
// for drop-boxes the caller's effective readable/writable bits."
type Entry struct {
	Path         string
	Type         EntryType
	DataSize     int64
	RsrcSize     int64
	ChildCount   int
	CreationTime time.Time
	ModTime      time.Time
	IsLink       bool
	Executable   bool
	Label        int
	Comment      string
	Device       *uint64 // set only when on a device other than the root volume

	// Drop-box-only ACL view for this caller.
	Readable bool
	Writable bool
}

// Permissions is a drop-box's ACL, persisted under .wired/permissions,
// per spec.md §4.4. Default if missing: world write-only.
type Permissions struct {
	Owner string
	Group string
	Mode  int32 // reuses board.ACL's bit layout
}

const DefaultDropBoxMode = 1 << 1 // other-write only, see board.ModeOtherWrite
