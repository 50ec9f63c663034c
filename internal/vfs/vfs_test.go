package vfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFS_Resolve_RejectsDotDot(t *testing.T) {
	fs := New(t.TempDir())
	if _, err := fs.Resolve("", "../etc/passwd"); err != ErrInvalidPath {
		t.Fatalf("expected invalid_message for path traversal, got %v", err)
	}
}

func TestFS_ListDirectory_SkipsDotFiles(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "visible.txt"), []byte("hi"), 0644)
	os.WriteFile(filepath.Join(root, ".hidden"), []byte("hi"), 0644)

	fs := New(root)
	entries, err := fs.ListDirectory(root, "guest", nil)
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if len(entries) != 1 || filepath.Base(entries[0].Path) != "visible.txt" {
		t.Fatalf("expected only visible.txt, got %+v", entries)
	}
}

func TestFS_CreateDirectory_DropBoxDefaultACL(t *testing.T) {
	root := t.TempDir()
	fs := New(root)
	dropPath := filepath.Join(root, "drop")
	if err := fs.CreateDirectory(dropPath, TypeDropBox); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	entries, err := fs.ListDirectory(root, "someoneelse", nil)
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Type != TypeDropBox {
		t.Fatalf("expected TypeDropBox, got %v", e.Type)
	}
	if e.Readable {
		t.Error("default drop-box ACL should not be readable by a non-owner")
	}
	if !e.Writable {
		t.Error("default drop-box ACL should be world-writable")
	}
}

func TestFS_SetComment_EmptyDeletesEntry(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0644)
	fs := New(root)

	if err := fs.SetComment(root, "a.txt", "hello"); err != nil {
		t.Fatalf("SetComment: %v", err)
	}
	c, _ := getComment(root, "a.txt")
	if c != "hello" {
		t.Fatalf("expected comment 'hello', got %q", c)
	}

	if err := fs.SetComment(root, "a.txt", ""); err != nil {
		t.Fatalf("SetComment clear: %v", err)
	}
	c, _ = getComment(root, "a.txt")
	if c != "" {
		t.Fatalf("expected comment cleared, got %q", c)
	}
}

func TestFS_Move_SamePathDifferentDirectory(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0644)
	os.Mkdir(filepath.Join(root, "sub"), 0755)
	fs := New(root)

	if err := fs.Move(filepath.Join(root, "a.txt"), filepath.Join(root, "sub", "a.txt")); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "a.txt")); !os.IsNotExist(err) {
		t.Error("expected source to be gone after move")
	}
	if _, err := os.Stat(filepath.Join(root, "sub", "a.txt")); err != nil {
		t.Error("expected destination to exist after move")
	}
}
