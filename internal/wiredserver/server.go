// Package wiredserver wires every component package into one running
// process: the TCP listener accepting P7 sessions, the UDP tracker
// listener, signal handling, and config hot-reload. Grounded on the
// teacher's cmd/vision3d main.go top-level wiring shape (construct
// every manager once, hand them to the thing that needs them,
// register OS signal handlers), generalized from an SSH BBS server to
// spec.md §7's signal contract (HUP/USR1/USR2/TERM/INT/QUIT/PIPE/
// SEGV).
package wiredserver

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/stlalpha/wired/internal/accountsvc"
	"github.com/stlalpha/wired/internal/banlist"
	"github.com/stlalpha/wired/internal/board"
	"github.com/stlalpha/wired/internal/chat"
	"github.com/stlalpha/wired/internal/config"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/dispatch"
	"github.com/stlalpha/wired/internal/eventlog"
	"github.com/stlalpha/wired/internal/index"
	"github.com/stlalpha/wired/internal/schema"
	"github.com/stlalpha/wired/internal/session"
	"github.com/stlalpha/wired/internal/store"
	"github.com/stlalpha/wired/internal/tracker"
	"github.com/stlalpha/wired/internal/transfer"
	"github.com/stlalpha/wired/internal/vfs"
)

// Server owns every long-lived component and the TCP/UDP listeners
// that feed them.
type Server struct {
	dir   string
	cfgMu sync.RWMutex
	cfg   config.Config

	store    *store.Store
	schema   *schema.Schema
	services *dispatch.Services
	indexer  *index.Indexer
	watcher  *vfs.Watcher
	trackerC *tracker.Client
	trackerS *tracker.Server

	listener   net.Listener
	nextID     int32
	trackerCtx context.Context
	cancelTracker context.CancelFunc

	ctl      *ctlSocket
	reloader *config.Reloader
}

// New constructs every manager and wires them into one dispatch.Services
// value, per spec.md §4's component list.
func New(dir string) (*Server, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		log.Printf("WARN: wiredserver: %v", err)
	}

	dataRoot := filepath.Join(dir, cfg.DataRoot)
	if err := os.MkdirAll(dataRoot, 0755); err != nil {
		return nil, err
	}
	filesRoot := filepath.Join(dir, cfg.FilesRoot)
	if err := os.MkdirAll(filesRoot, 0755); err != nil {
		return nil, err
	}

	st, err := store.Open(filepath.Join(dataRoot, "wired.db"))
	if err != nil {
		return nil, err
	}
	if err := st.MigrateLegacyFiles(dir); err != nil {
		log.Printf("WARN: wiredserver: legacy file migration: %v", err)
	}

	registry := connuser.NewRegistry()
	sch := schema.New()

	chatMgr := chat.NewManager(registry)
	boardMgr := board.NewManager(st, registry)
	accounts := accountsvc.NewManager(st, registry)
	fs := vfs.New(filesRoot)
	bans := banlist.New(st)
	events := eventlog.New(st)
	transfers := transfer.NewManager(func(login string) transfer.Limits {
		return transfer.Limits{MaxDownloads: 2, MaxUploads: 2}
	})

	watcher, err := vfs.NewWatcher(func(virtualPath, event string) {
		for _, u := range registry.ListActive() {
			if u.IsWatching(virtualPath) {
				u.Notify(event, map[string]any{"file.path": virtualPath})
			}
		}
	})
	if err != nil {
		return nil, err
	}

	reindexInterval := time.Duration(cfg.IndexReindexIntervalMinutes) * time.Minute
	indexer := index.New(st, filesRoot, reindexInterval)

	svc := &dispatch.Services{
		Schema:          sch,
		Accounts:        accounts,
		Chat:            chatMgr,
		Boards:          boardMgr,
		FS:              fs,
		Watcher:         watcher,
		Index:           indexer,
		Transfers:       transfers,
		Bans:            bans,
		Events:          events,
		Registry:        registry,
		Store:           st,
		TrackerCategory: cfg.Category,

		DefaultDownloadSpeedLimit: cfg.DefaultDownloadSpeedLimit,
		DefaultUploadSpeedLimit:   cfg.DefaultUploadSpeedLimit,
		RequireEncryption:         cfg.RequireEncryption,
	}

	s := &Server{
		dir:      dir,
		cfg:      cfg,
		store:    st,
		schema:   sch,
		services: svc,
		indexer:  indexer,
		watcher:  watcher,
	}

	s.ctl = newCtlSocket(filepath.Join(dir, "wired.ctl"), s)

	if cfg.TrackerEnabled {
		s.trackerS = tracker.NewServer(st)
	}
	if len(cfg.TrackerUpstreams) > 0 {
		upstreams := make([]tracker.Upstream, len(cfg.TrackerUpstreams))
		for i, addr := range cfg.TrackerUpstreams {
			upstreams[i] = tracker.Upstream{Addr: addr}
		}
		interval := time.Duration(cfg.TrackerUpdateIntervalMinutes) * time.Minute
		s.trackerC = tracker.NewClient(upstreams, interval, s.trackerInfo)
	}

	return s, nil
}

// config returns a consistent snapshot of the hot-reloadable
// configuration, matching the teacher's serverConfigMu-guarded
// pointer-swap pattern so a SIGHUP reload never races a reader.
func (s *Server) config() config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

func (s *Server) setConfig(cfg config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}

func (s *Server) trackerInfo() tracker.Info {
	cfg := s.config()
	return tracker.Info{
		Port:        uint32(cfg.ListenPort),
		Name:        cfg.ServerName,
		Description: cfg.ServerDescription,
		Category:    cfg.Category,
		URL:         cfg.URL,
		Users:       int32(len(s.services.Registry.ListActive())),
	}
}

// ListenAndServe starts the TCP listener, the background workers, and
// blocks handling OS signals until a shutdown signal arrives.
func (s *Server) ListenAndServe() error {
	if err := s.indexer.Start(); err != nil {
		log.Printf("WARN: wiredserver: indexer start: %v", err)
	}

	cfg := s.config()
	addr := net.JoinHostPort(cfg.ListenHost, strconv.Itoa(cfg.ListenPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	log.Printf("INFO: wiredserver: listening on %s", addr)

	if err := s.ctl.Start(); err != nil {
		log.Printf("WARN: wiredserver: control socket: %v", err)
	}

	if reloader, err := config.WatchForChanges(s.dir, s.setConfig); err != nil {
		log.Printf("WARN: wiredserver: config watcher: %v", err)
	} else {
		s.reloader = reloader
	}

	if s.trackerS != nil {
		go func() {
			trackerAddr := net.JoinHostPort(cfg.ListenHost, strconv.Itoa(cfg.TrackerListenPort))
			if err := s.trackerS.ListenAndServe(trackerAddr); err != nil {
				log.Printf("ERROR: wiredserver: tracker server: %v", err)
			}
		}()
	}
	if s.trackerC != nil {
		s.trackerCtx, s.cancelTracker = context.WithCancel(context.Background())
		s.trackerC.Start(s.trackerCtx)
	}

	go s.acceptLoop()

	return s.handleSignals()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("ERROR: wiredserver: accept: %v", err)
			continue
		}
		id := atomic.AddInt32(&s.nextID, 1)
		h := session.NewHandler(conn, id, s.services)
		go h.Serve()
	}
}

// handleSignals implements spec.md §7's signal contract: HUP re-reads
// config, USR1 re-registers with trackers, USR2 forces a reindex,
// TERM/INT/QUIT shut down in order, PIPE is ignored (Go never delivers
// it to user handlers by default, listed here for completeness).
func (s *Server) handleSignals() error {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2,
		syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	for sig := range sigCh {
		switch sig {
		case syscall.SIGHUP:
			log.Printf("INFO: wiredserver: SIGHUP, reloading config")
			if cfg, err := config.Reload(s.dir); err != nil {
				log.Printf("WARN: wiredserver: config reload: %v", err)
			} else {
				s.setConfig(cfg)
			}
		case syscall.SIGUSR1:
			log.Printf("INFO: wiredserver: SIGUSR1, re-registering with trackers")
			if s.cancelTracker != nil {
				s.cancelTracker()
			}
			if s.trackerC != nil {
				s.trackerCtx, s.cancelTracker = context.WithCancel(context.Background())
				s.trackerC.Start(s.trackerCtx)
			}
		case syscall.SIGUSR2:
			log.Printf("INFO: wiredserver: SIGUSR2, forcing reindex")
			go func() {
				if err := s.indexer.Reindex(); err != nil {
					log.Printf("ERROR: wiredserver: forced reindex: %v", err)
				}
			}()
		case syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT:
			log.Printf("INFO: wiredserver: %v, shutting down", sig)
			return s.shutdown()
		}
	}
	return nil
}

func (s *Server) shutdown() error {
	s.indexer.Stop()
	if err := s.watcher.Close(); err != nil {
		log.Printf("WARN: wiredserver: watcher close: %v", err)
	}
	if err := s.ctl.Close(); err != nil {
		log.Printf("WARN: wiredserver: control socket close: %v", err)
	}
	if s.reloader != nil {
		if err := s.reloader.Close(); err != nil {
			log.Printf("WARN: wiredserver: config watcher close: %v", err)
		}
	}
	if s.listener != nil {
		s.listener.Close()
	}
	if s.trackerS != nil {
		if err := s.trackerS.Close(); err != nil {
			log.Printf("WARN: wiredserver: tracker server close: %v", err)
		}
	}
	if s.cancelTracker != nil {
		s.cancelTracker()
	}
	return s.store.Close()
}
