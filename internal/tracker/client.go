// Package tracker implements spec.md §4.9: a server periodically
// registers itself and posts update deltas to zero or more upstream
// tracker servers over UDP, and a server running as a tracker accepts
// registrations, listens for UDP update packets, and sweeps out
// registrations that have gone stale. Grounded on the teacher's
// internal/scheduler Scheduler (cron-driven periodic work under a
// concurrency semaphore, graceful context-cancel shutdown), adapted
// from a config-driven cron-expression event list to a single fixed
// register-then-update interval per spec.md §4.9.
package tracker

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Info is the advertisement a server posts to an upstream tracker,
// spec.md §3's Server entity trimmed to what a client sends.
type Info struct {
	Port        uint32
	Name        string
	Description string
	Category    string
	URL         string
	Users       int32
	Files       int32
	Size        int64
}

// Upstream is one configured tracker address this server registers
// with.
type Upstream struct {
	Addr string // host:port
}

// Client runs the periodic register+update loop against every
// configured upstream, per spec.md §4.9.
type Client struct {
	mu        sync.RWMutex
	upstreams []Upstream
	interval  time.Duration
	info      func() Info

	cron *cron.Cron
}

func NewClient(upstreams []Upstream, interval time.Duration, info func() Info) *Client {
	return &Client{upstreams: upstreams, interval: interval, info: info}
}

// Start runs an immediate register pass, then schedules a register
// pass every hour and update passes at the configured interval until
// ctx is cancelled.
func (c *Client) Start(ctx context.Context) {
	c.registerAll()

	c.cron = cron.New()
	spec := "@every " + c.interval.String()
	if _, err := c.cron.AddFunc(spec, c.updateAll); err != nil {
		log.Printf("ERROR: tracker: failed to schedule periodic update: %v", err)
		return
	}
	if _, err := c.cron.AddFunc("@every 1h", c.registerAll); err != nil {
		log.Printf("ERROR: tracker: failed to schedule hourly register: %v", err)
		return
	}
	c.cron.Start()

	go func() {
		<-ctx.Done()
		c.cron.Stop()
	}()
}

func (c *Client) registerAll() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.upstreams {
		if err := c.send(u, "register"); err != nil {
			log.Printf("WARN: tracker: register with %s failed: %v", u.Addr, err)
		}
	}
}

func (c *Client) updateAll() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.upstreams {
		if err := c.send(u, "update"); err != nil {
			log.Printf("WARN: tracker: update to %s failed: %v", u.Addr, err)
		}
	}
}

// send posts a single UDP datagram encoding kind and the current Info
// snapshot to the upstream.
func (c *Client) send(u Upstream, kind string) error {
	conn, err := net.Dial("udp", u.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	info := c.info()
	payload := encodeUpdate(kind, info)
	_, err = conn.Write(payload)
	return err
}
