package vfs

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher forwards directory_changed/directory_deleted events to
// every session whose subscription set contains the changed path (or
// its .wired metadata child), per spec.md §4.4. Grounded on the
// teacher's cmd/vision3/config_watcher.go use of fsnotify for
// config-file hot reload, generalized from a fixed set of watched
// config paths to a dynamic per-session subscribe/unsubscribe set.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	notify  func(virtualPath, event string)
	watched map[string]int // real dir -> refcount
}

func NewWatcher(notify func(virtualPath, event string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, notify: notify, watched: make(map[string]int)}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			dir := filepath.Dir(ev.Name)
			event := "directory_changed"
			if ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0 {
				event = "directory_deleted"
			}
			w.notify(dir, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("WARN: vfs: filesystem watcher error: %v", err)
		}
	}
}

// Subscribe starts watching realDir (idempotent, refcounted so that
// multiple sessions watching the same directory share one inotify
// watch).
func (w *Watcher) Subscribe(realDir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[realDir] == 0 {
		if err := w.fsw.Add(realDir); err != nil {
			return err
		}
	}
	w.watched[realDir]++
	return nil
}

// Unsubscribe decrements the refcount, removing the underlying watch
// once no session is left watching realDir.
func (w *Watcher) Unsubscribe(realDir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[realDir] <= 0 {
		return
	}
	w.watched[realDir]--
	if w.watched[realDir] == 0 {
		delete(w.watched, realDir)
		_ = w.fsw.Remove(realDir)
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
