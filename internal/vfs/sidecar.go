package vfs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// sidecarDir is the per-directory metadata folder spec.md §4.4/§6
// names: ".wired/type", ".wired/comments", ".wired/labels",
// ".wired/permissions".
const sidecarDir = ".wired"

func sidecarPath(dir, file string) string {
	return filepath.Join(dir, sidecarDir, file)
}

// readKV reads a simple "key\tvalue" per line sidecar file into a map.
// The teacher's config/JSON sidecars use a richer format; Wired's
// comments/labels sidecars are a flat basename->value mapping, so a
// tab-separated line format is used here -- plain enough that a
// corrupt line is simply skipped rather than failing the whole load.
func readKV(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.IndexByte(line, '\t')
		if idx < 0 {
			continue
		}
		out[line[:idx]] = line[idx+1:]
	}
	return out, scanner.Err()
}

func writeKV(path string, kv map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for k, v := range kv {
		if v == "" {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", k, v)
	}
	return w.Flush()
}

// EntryType reads the out-of-band type sidecar for an entry. Absence
// means "regular dir" (or "file" for non-directories); only type >= 1
// (dir) is ever stored, per spec.md §4.4.
func entryType(dir, name string, isDir bool) (EntryType, error) {
	path := sidecarPath(dir, "type")
	kv, err := readKV(path)
	if err != nil {
		return TypeFile, err
	}
	if raw, ok := kv[name]; ok {
		n, err := strconv.Atoi(raw)
		if err == nil {
			return EntryType(n), nil
		}
	}
	if isDir {
		return TypeDir, nil
	}
	return TypeFile, nil
}

func setEntryType(dir, name string, t EntryType) error {
	path := sidecarPath(dir, "type")
	kv, err := readKV(path)
	if err != nil {
		return err
	}
	if t < TypeDir {
		delete(kv, name)
	} else {
		kv[name] = strconv.Itoa(int(t))
	}
	return writeKV(path, kv)
}

func getComment(dir, name string) (string, error) {
	kv, err := readKV(sidecarPath(dir, "comments"))
	if err != nil {
		return "", err
	}
	return kv[name], nil
}

// SetComment sets or, if c == "", deletes the comment sidecar entry
// for name, per spec.md §8: "set_comment(p, ''); deletes the sidecar
// entry if it exists."
func setComment(dir, name, c string) error {
	path := sidecarPath(dir, "comments")
	kv, err := readKV(path)
	if err != nil {
		return err
	}
	if c == "" {
		delete(kv, name)
	} else {
		kv[name] = c
	}
	return writeKV(path, kv)
}

func getLabel(dir, name string) (int, error) {
	kv, err := readKV(sidecarPath(dir, "labels"))
	if err != nil {
		return 0, err
	}
	if raw, ok := kv[name]; ok {
		n, _ := strconv.Atoi(raw)
		return n, nil
	}
	return 0, nil
}

func setLabel(dir, name string, label int) error {
	path := sidecarPath(dir, "labels")
	kv, err := readKV(path)
	if err != nil {
		return err
	}
	if label == 0 {
		delete(kv, name)
	} else {
		kv[name] = strconv.Itoa(label)
	}
	return writeKV(path, kv)
}

func getPermissions(dir string) (Permissions, error) {
	kv, err := readKV(sidecarPath(dir, "permissions"))
	if err != nil {
		return Permissions{}, err
	}
	if len(kv) == 0 {
		return Permissions{Mode: DefaultDropBoxMode}, nil
	}
	mode, _ := strconv.Atoi(kv["mode"])
	return Permissions{Owner: kv["owner"], Group: kv["group"], Mode: int32(mode)}, nil
}

func setPermissions(dir string, p Permissions) error {
	return writeKV(sidecarPath(dir, "permissions"), map[string]string{
		"owner": p.Owner,
		"group": p.Group,
		"mode":  strconv.Itoa(int(p.Mode)),
	})
}

// moveSidecarEntry relocates a single basename's comment/label/type
// entries from one directory to another, used when a file is moved,
// per spec.md §4.6 "comments and labels are moved".
func moveSidecarEntry(oldDir, oldName, newDir, newName string) error {
	for _, file := range []string{"comments", "labels", "type"} {
		kv, err := readKV(sidecarPath(oldDir, file))
		if err != nil {
			return err
		}
		v, ok := kv[oldName]
		if !ok {
			continue
		}
		delete(kv, oldName)
		if err := writeKV(sidecarPath(oldDir, file), kv); err != nil {
			return err
		}
		newKV, err := readKV(sidecarPath(newDir, file))
		if err != nil {
			return err
		}
		newKV[newName] = v
		if err := writeKV(sidecarPath(newDir, file), newKV); err != nil {
			return err
		}
	}
	return nil
}
