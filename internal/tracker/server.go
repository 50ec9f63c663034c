package tracker

import (
	"log"
	"net"
	"sync"
	"time"

	"github.com/stlalpha/wired/internal/store"
)

// staleAfter is how long a registered server may go without an update
// before the sweep retires it, per spec.md §4.9.
const staleAfter = 10 * time.Minute

// Server is the tracker-mode half of internal/tracker: a UDP listener
// that records register/update packets into the store's ServerRow
// table and periodically deactivates entries that stopped updating.
type Server struct {
	store *store.Store
	conn  *net.UDPConn

	mu      sync.Mutex
	stopped chan struct{}
}

func NewServer(s *store.Store) *Server {
	return &Server{store: s, stopped: make(chan struct{})}
}

func (s *Server) ListenAndServe(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.conn = conn

	go s.sweepLoop()

	buf := make([]byte, 4096)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.stopped:
				return nil
			default:
			}
			log.Printf("WARN: tracker: udp read failed: %v", err)
			continue
		}
		s.handle(from, buf[:n])
	}
}

func (s *Server) handle(from *net.UDPAddr, payload []byte) {
	_, info := decodeUpdate(payload)
	now := time.Now()
	existing, err := s.store.GetServer(from.IP.String(), info.Port)
	if err != nil {
		log.Printf("WARN: tracker: lookup server %s:%d failed: %v", from.IP, info.Port, err)
		return
	}
	row := &store.ServerRow{
		IP:             from.IP.String(),
		Port:           info.Port,
		Category:       info.Category,
		URL:            info.URL,
		Name:           info.Name,
		Description:    info.Description,
		Users:          uint32(info.Users),
		Files:          uint32(info.Files),
		Size:           info.Size,
		RegisterTime:   now,
		LastUpdateTime: now,
		Active:         true,
	}
	if existing != nil {
		row.RegisterTime = existing.RegisterTime
		row.CipherName, row.CipherKey, row.CipherIV = existing.CipherName, existing.CipherKey, existing.CipherIV
	}
	if err := s.store.UpsertServer(row); err != nil {
		log.Printf("WARN: tracker: upsert server %s:%d failed: %v", from.IP, info.Port, err)
	}
}

func (s *Server) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopped:
			return
		case <-ticker.C:
			stale, err := s.store.DeactivateStaleServers(time.Now().Add(-staleAfter))
			if err != nil {
				log.Printf("WARN: tracker: stale sweep failed: %v", err)
				continue
			}
			if len(stale) > 0 {
				log.Printf("INFO: tracker: deactivated %d stale server(s)", len(stale))
			}
		}
	}
}

func (s *Server) Close() error {
	close(s.stopped)
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

