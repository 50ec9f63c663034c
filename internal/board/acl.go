// Package board implements spec.md §4.8: a tree of named boards with
// owner/group/everyone ACLs, threads rooted in a board, posts rooted
// in a thread, and change broadcast to subscribers. Grounded on the
// teacher's internal/message package (MessageArea tree with ACS
// read/write strings, thread/post CRUD) generalized from ACS-string
// access control to Wired's 9-bit owner/group/everyone mode, and on
// original_source/wired/boards.c for the rename/move/ACL-diff
// broadcast semantics.
package board

// Mode bits, analogous to POSIX rwx but only read+write per scope (the
// execute bits are unused, per spec.md §3).
const (
	ModeOwnerRead = 1 << 8
	ModeOwnerWrite = 1 << 7
	ModeGroupRead = 1 << 5
	ModeGroupWrite = 1 << 4
	ModeOtherRead = 1 << 2
	ModeOtherWrite = 1 << 1
)

// ACL evaluates read/write access for a Board against a caller.
type ACL struct {
	Owner string
	Group string
	Mode  int32
}

// CanRead reports whether a caller (login + groups) can read this board.
func (a ACL) CanRead(login string, groups []string) bool {
	return a.check(login, groups, ModeOwnerRead, ModeGroupRead, ModeOtherRead)
}

// CanWrite reports whether a caller can write (post) to this board.
func (a ACL) CanWrite(login string, groups []string) bool {
	return a.check(login, groups, ModeOwnerWrite, ModeGroupWrite, ModeOtherWrite)
}

func (a ACL) check(login string, callerGroups []string, ownerBit, groupBit, otherBit int32) bool {
	if a.Mode&otherBit != 0 {
		return true
	}
	if login == a.Owner && a.Mode&ownerBit != 0 {
		return true
	}
	if a.Group != "" && a.Mode&groupBit != 0 {
		for _, g := range callerGroups {
			if g == a.Group {
				return true
			}
		}
	}
	return false
}
