// Package index implements spec.md §4.5: a background crawler that
// walks the real files root (following symlinks, skipping drop-box
// contents, deduplicating by (device, inode) with a 20-level depth
// cap) and populates a searchable (name, virtual_path, real_path)
// table, reindexed periodically and incrementally on create/delete.
// Grounded on the teacher's internal/file package's recursive area
// scan (loadAllFileRecords) generalized to a single recursive crawl
// with cycle detection, scheduled via github.com/robfig/cron/v3 the
// way internal/scheduler schedules door/event commands.
package index

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stlalpha/wired/internal/store"
)

const maxDepth = 20

type inodeKey struct {
	dev, ino uint64
}

type Indexer struct {
	store    *store.Store
	realRoot string
	interval time.Duration
	cron     *cron.Cron
}

func New(s *store.Store, realRoot string, interval time.Duration) *Indexer {
	return &Indexer{store: s, realRoot: realRoot, interval: interval}
}

// Start runs an initial reindex if the stored snapshot is older than
// interval (spec.md §4.5: "an on-demand reindex request ... at
// startup (when the stored snapshot is newer than the configured
// interval) is honored" -- the crawl runs when it is NOT newer, i.e.
// the snapshot is stale), then schedules periodic reindexing.
func (ix *Indexer) Start() error {
	last, err := ix.lastCrawlTime()
	if err != nil {
		return err
	}
	if time.Since(last) >= ix.interval {
		if err := ix.Reindex(); err != nil {
			return err
		}
	}

	ix.cron = cron.New()
	spec := "@every " + ix.interval.String()
	if _, err := ix.cron.AddFunc(spec, func() {
		if err := ix.Reindex(); err != nil {
			log.Printf("ERROR: index: periodic reindex failed: %v", err)
		}
	}); err != nil {
		return err
	}
	ix.cron.Start()
	return nil
}

func (ix *Indexer) Stop() {
	if ix.cron != nil {
		ix.cron.Stop()
	}
}

func (ix *Indexer) lastCrawlTime() (time.Time, error) {
	raw, err := ix.store.IndexMetadata("last_crawl_unix")
	if err != nil {
		return time.Time{}, err
	}
	if raw == "" {
		return time.Time{}, nil
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, nil
	}
	return time.Unix(sec, 0), nil
}

// Reindex performs a full crawl and atomically replaces the index.
func (ix *Indexer) Reindex() error {
	seen := make(map[inodeKey]bool)
	var rows []store.IndexRow

	var walk func(realDir, virtualDir string, depth int) error
	walk = func(realDir, virtualDir string, depth int) error {
		if maxDepth > 0 && depth > maxDepth {
			return nil
		}
		entries, err := os.ReadDir(realDir)
		if err != nil {
			return nil // unreadable subtree: skip, don't fail the whole crawl
		}
		for _, e := range entries {
			name := e.Name()
			if len(name) > 0 && name[0] == '.' {
				continue
			}
			realPath := filepath.Join(realDir, name)
			virtualPath := filepath.Join(virtualDir, name)

			info, err := os.Stat(realPath) // follows symlinks/aliases
			if err != nil {
				continue
			}
			if key, ok := inodeOf(info); ok {
				if seen[key] {
					continue
				}
				seen[key] = true
			}

			isAlias := false
			if fi, err := os.Lstat(realPath); err == nil {
				isAlias = fi.Mode()&os.ModeSymlink != 0
			}

			rows = append(rows, store.IndexRow{
				Name: name, VirtualPath: virtualPath, RealPath: realPath, IsAlias: isAlias,
			})

			if info.IsDir() {
				if isDropBox(realPath) {
					continue // drop-box contents are not indexed, per spec.md §4.5
				}
				if err := walk(realPath, virtualPath, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(ix.realRoot, "/", 0); err != nil {
		return err
	}
	if err := ix.store.ReplaceIndex(rows); err != nil {
		return err
	}
	return ix.store.SetIndexMetadata("last_crawl_unix", strconv.FormatInt(time.Now().Unix(), 10))
}

func isDropBox(realPath string) bool {
	_, err := os.Stat(filepath.Join(realPath, ".wired", "permissions"))
	return err == nil
}

func inodeOf(info os.FileInfo) (inodeKey, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return inodeKey{}, false
	}
	return inodeKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// OnCreate/OnDelete perform the incremental updates spec.md §4.5
// describes for create/delete filesystem events, avoiding a full
// crawl for a single entry.
func (ix *Indexer) OnCreate(name, virtualPath, realPath string) error {
	return ix.store.InsertIndexEntry(&store.IndexRow{Name: name, VirtualPath: virtualPath, RealPath: realPath})
}

func (ix *Indexer) OnDelete(virtualPath string) error {
	return ix.store.DeleteIndexEntriesUnder(virtualPath)
}

// Search restricts results to paths under subRoot, per spec.md §4.5.
func (ix *Indexer) Search(query, subRoot string) ([]store.IndexRow, error) {
	return ix.store.SearchIndex(query, subRoot)
}
