package wiredserver

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/stlalpha/wired/internal/transfer"
)

// ctlSocket is the operator control surface SPEC_FULL.md adds: a Unix
// domain socket at <root>/wired.ctl accepting a tiny line-oriented
// STATUS/USERS/TRANSFERS protocol, grounded on the teacher's
// internal/session SessionRegistry listing shape but rendered as
// plain text lines instead of a terminal menu, since its only
// consumer is cmd/wiredtop rather than an interactive BBS user.
type ctlSocket struct {
	path string
	ln   net.Listener
	srv  *Server
}

func newCtlSocket(path string, srv *Server) *ctlSocket {
	return &ctlSocket{path: path, srv: srv}
}

func (c *ctlSocket) Start() error {
	os.Remove(c.path)
	ln, err := net.Listen("unix", c.path)
	if err != nil {
		return err
	}
	c.ln = ln
	go c.acceptLoop()
	return nil
}

func (c *ctlSocket) Close() error {
	if c.ln == nil {
		return nil
	}
	err := c.ln.Close()
	os.Remove(c.path)
	return err
}

func (c *ctlSocket) acceptLoop() {
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			return
		}
		go c.handle(conn)
	}
}

func (c *ctlSocket) handle(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		switch cmd {
		case "STATUS":
			c.writeStatus(conn)
		case "USERS":
			c.writeUsers(conn)
		case "TRANSFERS":
			c.writeTransfers(conn)
		case "":
			continue
		default:
			fmt.Fprintf(conn, "ERR unknown command %q\n", cmd)
		}
	}
}

func (c *ctlSocket) writeStatus(conn net.Conn) {
	cfg := c.srv.config()
	active := c.srv.services.Registry.ListActive()
	fmt.Fprintf(conn, "name\t%s\n", cfg.ServerName)
	fmt.Fprintf(conn, "users\t%d\n", len(active))
	fmt.Fprintf(conn, "tracker_enabled\t%v\n", cfg.TrackerEnabled)
	fmt.Fprintf(conn, "port\t%d\n", cfg.ListenPort)
	fmt.Fprintln(conn, ".")
}

func (c *ctlSocket) writeUsers(conn net.Conn) {
	for _, u := range c.srv.services.Registry.ListActive() {
		info := u.Snapshot()
		fmt.Fprintf(conn, "%d\t%s\t%s\t%s\t%s\n", info.ID, info.Nick, info.Login, info.RemoteIP, info.Idle)
	}
	fmt.Fprintln(conn, ".")
}

func (c *ctlSocket) writeTransfers(conn net.Conn) {
	for _, t := range c.srv.services.Transfers.All() {
		fmt.Fprintf(conn, "%s\t%s\t%s\t%s\t%d/%d\t%d\n",
			t.Login, transferTypeName(t.Type), transferStateName(t.State),
			t.VirtualPath, t.DataTransferred, t.DataSize, t.QueuePos)
	}
	fmt.Fprintln(conn, ".")
}

func transferTypeName(t transfer.Type) string {
	if t == transfer.Upload {
		return "upload"
	}
	return "download"
}

func transferStateName(s transfer.State) string {
	if s == transfer.Running {
		return "running"
	}
	return "queued"
}
