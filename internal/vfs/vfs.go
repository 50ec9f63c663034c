package vfs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"
)

var (
	ErrFileNotFound   = errors.New("file_not_found")
	ErrFileExists     = errors.New("file_exists")
	ErrInvalidPath    = errors.New("invalid_message")
	ErrPermissionDenied = errors.New("permission_denied")
)

// FS is a virtual filesystem rooted at realRoot, per spec.md §4.4.
type FS struct {
	realRoot string
}

func New(realRoot string) *FS {
	return &FS{realRoot: realRoot}
}

// Resolve maps a virtual path (as seen by a user whose account
// sub-root is subRoot) to a real filesystem path, rejecting any
// attempt to escape the chroot, per spec.md §4.4: "A virtual path
// must not start with '.' and must not contain '..'."
func (fs *FS) Resolve(subRoot, virtualPath string) (string, error) {
	clean := path_Clean(virtualPath)
	if strings.HasPrefix(clean, ".") || strings.Contains(clean, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(fs.realRoot, subRoot, clean), nil
}

func path_Clean(p string) string {
	p = strings.TrimPrefix(p, "/")
	return filepath.Clean("/" + p)[1:]
}

// ListDirectory enumerates entries directly under real path dir
// (one level; recursion is driven by the caller re-invoking per
// spec.md §4.4's depth-limited recursive listing), applying the
// dot-file skip, sidecar type lookup, and drop-box ACL view.
func (fs *FS) ListDirectory(dir string, callerLogin string, callerGroups []string) ([]Entry, error) {
	infos, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	rootDev, _ := deviceOf(fs.realRoot)

	var out []Entry
	for _, info := range infos {
		name := info.Name()
		if strings.HasPrefix(name, ".") {
			continue // dot-files and .wired itself are hidden, per spec.md §4.4
		}

		full := filepath.Join(dir, name)
		fi, err := os.Lstat(full)
		if err != nil {
			continue
		}

		isDir := fi.IsDir()
		t, err := entryType(dir, name, isDir)
		if err != nil {
			return nil, err
		}

		entry := Entry{
			Path:         filepath.Join("/", name),
			Type:         t,
			ModTime:      fi.ModTime(),
			IsLink:       fi.Mode()&os.ModeSymlink != 0,
		}
		entry.CreationTime = creationTime(fi)

		if isDir {
			children, _ := os.ReadDir(full)
			entry.ChildCount = len(children)
		} else {
			entry.DataSize = fi.Size()
		}

		if dev, ok := deviceOf(full); ok && dev != rootDev {
			d := dev
			entry.Device = &d
		}

		if comment, err := getComment(dir, name); err == nil {
			entry.Comment = comment
		}
		if label, err := getLabel(dir, name); err == nil {
			entry.Label = label
		}

		if t == TypeDropBox {
			perm, err := getPermissions(full)
			if err != nil {
				return nil, err
			}
			acl := dropBoxACL(perm)
			entry.Readable = acl.CanRead(callerLogin, callerGroups)
			entry.Writable = acl.CanWrite(callerLogin, callerGroups)
		}

		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// GetInfo returns the Entry for a single real path.
func (fs *FS) GetInfo(realPath, callerLogin string, callerGroups []string) (Entry, error) {
	dir := filepath.Dir(realPath)
	name := filepath.Base(realPath)
	entries, err := fs.ListDirectory(dir, callerLogin, callerGroups)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if filepath.Base(e.Path) == name {
			return e, nil
		}
	}
	return Entry{}, ErrFileNotFound
}

// CreateDirectory makes a directory (or a typed variant: uploads or
// drop-box) at realPath, per spec.md end-to-end scenario 4.
func (fs *FS) CreateDirectory(realPath string, t EntryType) error {
	if _, err := os.Stat(realPath); err == nil {
		return ErrFileExists
	}
	if err := os.MkdirAll(realPath, 0755); err != nil {
		return err
	}
	if t >= TypeDir {
		dir := filepath.Dir(realPath)
		name := filepath.Base(realPath)
		if err := setEntryType(dir, name, t); err != nil {
			return err
		}
	}
	if t == TypeDropBox {
		if err := setPermissions(realPath, Permissions{Mode: DefaultDropBoxMode}); err != nil {
			return err
		}
	}
	return nil
}

// Move renames oldPath to newPath. Same-device moves are a plain
// rename (through a temp path when only case changes, per spec.md
// §4.4). Cross-device moves copy the tree with CopyAcrossDevices and
// then delete the source, both inside this call; no background worker
// is used, so Move returns only after the whole copy has finished.
func (fs *FS) Move(oldPath, newPath string) error {
	if _, err := os.Stat(newPath); err == nil {
		return ErrFileExists
	}

	oldDir, oldName := filepath.Dir(oldPath), filepath.Base(oldPath)
	newDir, newName := filepath.Dir(newPath), filepath.Base(newPath)

	if SameDevice(oldPath, newDir) {
		if strings.EqualFold(oldPath, newPath) && oldPath != newPath {
			tmp := oldPath + ".wiredtmp"
			if err := os.Rename(oldPath, tmp); err != nil {
				return err
			}
			oldPath = tmp
		}
		if err := os.Rename(oldPath, newPath); err != nil {
			return err
		}
	} else {
		if err := CopyAcrossDevices(oldPath, newPath); err != nil {
			return err
		}
		if err := os.RemoveAll(oldPath); err != nil {
			return err
		}
	}

	return moveSidecarEntry(oldDir, oldName, newDir, newName)
}

// SameDevice reports whether path and the directory dir live on the
// same device, per spec.md §4.4/§8: cross-device moves need the
// background copy worker.
func SameDevice(path, dir string) bool {
	pDev, ok1 := deviceOf(path)
	dDev, ok2 := deviceOf(dir)
	if !ok1 || !ok2 {
		return true
	}
	return pDev == dDev
}

// CopyAcrossDevices recursively copies src to dst, used by the
// cross-device move worker, per spec.md §4.4/§8: "the destination
// must exist with identical contents upon completion."
func CopyAcrossDevices(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		if err := os.MkdirAll(dst, info.Mode()); err != nil {
			return err
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := CopyAcrossDevices(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
				return err
			}
		}
		return nil
	}
	return copyFile(src, dst, info)
}

func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// Link creates a symbolic link at newPath pointing at the fully
// resolved target, per spec.md §4.4.
func (fs *FS) Link(target, newPath string) error {
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		resolved = target
	}
	return os.Symlink(resolved, newPath)
}

// Delete removes a file or directory tree.
func (fs *FS) Delete(realPath string) error {
	if _, err := os.Stat(realPath); os.IsNotExist(err) {
		return ErrFileNotFound
	}
	return os.RemoveAll(realPath)
}

func (fs *FS) SetType(dir, name string, t EntryType) error { return setEntryType(dir, name, t) }
func (fs *FS) SetComment(dir, name, comment string) error  { return setComment(dir, name, comment) }
func (fs *FS) SetLabel(dir, name string, label int) error  { return setLabel(dir, name, label) }
func (fs *FS) SetPermissions(realDir string, p Permissions) error { return setPermissions(realDir, p) }
func (fs *FS) GetPermissions(realDir string) (Permissions, error) { return getPermissions(realDir) }

func dropBoxACL(p Permissions) dropACL {
	return dropACL{owner: p.Owner, group: p.Group, mode: p.Mode}
}

// dropACL mirrors board.ACL's bit layout without importing the board
// package, avoiding a dependency from the filesystem layer onto the
// message-board layer for what is otherwise an identical 9-bit check.
type dropACL struct {
	owner, group string
	mode         int32
}

func (a dropACL) CanRead(login string, groups []string) bool {
	return a.check(login, groups, 1<<8, 1<<5, 1<<2)
}

func (a dropACL) CanWrite(login string, groups []string) bool {
	return a.check(login, groups, 1<<7, 1<<4, 1<<1)
}

func (a dropACL) check(login string, callerGroups []string, ownerBit, groupBit, otherBit int32) bool {
	if a.mode&otherBit != 0 {
		return true
	}
	if login == a.owner && a.mode&ownerBit != 0 {
		return true
	}
	if a.group != "" && a.mode&groupBit != 0 {
		for _, g := range callerGroups {
			if g == a.group {
				return true
			}
		}
	}
	return false
}

func deviceOf(path string) (uint64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(stat.Dev), true
}

func creationTime(fi os.FileInfo) (t time.Time) {
	stat, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return fi.ModTime()
	}
	return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
}
