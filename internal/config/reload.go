package config

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// Reloader watches wired.json for changes and invokes onReload with
// the freshly loaded Config, grounded on the teacher's
// cmd/vision3/config_watcher.go use of fsnotify for config hot-reload,
// generalized to this package's Config type. The server also honors
// an explicit SIGHUP by calling Reload directly (internal/wiredserver
// wires that up), so this watcher and the signal handler share one
// code path.
type Reloader struct {
	dir      string
	fsw      *fsnotify.Watcher
	onReload func(Config)
}

func WatchForChanges(dir string, onReload func(Config)) (*Reloader, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	r := &Reloader{dir: dir, fsw: fsw, onReload: onReload}
	go r.run()
	return r, nil
}

func (r *Reloader) run() {
	for {
		select {
		case ev, ok := <-r.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				r.Reload()
			}
		case err, ok := <-r.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("WARN: config: watcher error: %v", err)
		}
	}
}

// Reload re-reads wired.json and, if it parses cleanly, hands the
// result to onReload. A malformed file on reload keeps the server
// running with its last-known-good configuration rather than crashing
// it, per spec.md §7.
func (r *Reloader) Reload() {
	cfg, err := Load(r.dir)
	if err != nil {
		log.Printf("ERROR: config: reload failed, keeping previous configuration: %v", err)
		return
	}
	r.onReload(cfg)
}

func (r *Reloader) Close() error {
	return r.fsw.Close()
}
