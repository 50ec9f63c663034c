// Package session owns one accepted TCP connection end to end: the P7
// handshake, the framed read/dispatch loop, periodic pings, and
// disconnect cleanup. Grounded on the teacher's internal/session
// SessionHandler (phased HandleConnection lifecycle, one handler
// struct per connection, a per-phase method for each lifecycle step),
// generalized from an SSH terminal session to a length-framed P7
// socket per spec.md §4.1.
package session

import (
	"bufio"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/dispatch"
	"github.com/stlalpha/wired/internal/logging"
	"github.com/stlalpha/wired/internal/proto"
	"github.com/stlalpha/wired/internal/schema"
)

// readPoll is the message-read poll granularity, and
// inactivityCap the hard ceiling on no-read silence, per spec.md
// §4.1 ("polling wait with 0.1s granularity and a 120-second
// inactivity cap"). messageLoop does not poll: it sets a read
// deadline of inactivityCap before each frame, and readPoll is unused.
const (
	readPoll       = 100 * time.Millisecond
	inactivityCap  = 120 * time.Second
	handshakeLimit = 30 * time.Second
	pingInterval   = 60 * time.Second
)

// Handler owns the lifecycle of one accepted connection.
type Handler struct {
	conn net.Conn
	svc  *dispatch.Services
	user *connuser.User

	writeMu sync.Mutex
	r       *bufio.Reader

	cipher   *proto.Cipher
	compress proto.Compression
	checksum proto.ChecksumKind

	stopPing chan struct{}
}

// NewHandler wraps an accepted connection with id (its connuser.User
// identity) for one P7 session.
func NewHandler(conn net.Conn, id int32, svc *dispatch.Services) *Handler {
	h := &Handler{
		conn:     conn,
		svc:      svc,
		r:        bufio.NewReader(conn),
		compress: proto.CompressNone,
		checksum: proto.ChecksumNone,
		stopPing: make(chan struct{}),
	}
	h.user = connuser.New(id, conn, h.deliver)
	return h
}

// Serve runs the full connection lifecycle: handshake, message loop,
// and disconnect cleanup. It returns once the connection is closed.
func (h *Handler) Serve() {
	log.Printf("session %d: connection from %s", h.user.ID, h.user.RemoteIP)

	if err := h.conn.SetDeadline(time.Now().Add(handshakeLimit)); err != nil {
		log.Printf("session %d: set handshake deadline: %v", h.user.ID, err)
	}
	if err := h.handshake(); err != nil {
		log.Printf("session %d: handshake failed: %v", h.user.ID, err)
		h.conn.Close()
		return
	}

	go h.pingLoop()
	h.messageLoop()
	h.cleanup()
}

// handshake advertises the schema name/version and waits for the
// client's matching preamble, per spec.md §4.1 step 2. Compression,
// encryption, and checksum negotiation piggyback on the first
// client_info/server_info and send_login exchanges, which the
// dispatch table handles as ordinary messages; messageLoop applies
// the negotiated settings to h itself at the right point once each of
// those dispatches returns. The only handshake-specific work left at
// this layer is the bare schema advertisement every P7 implementation
// exchanges before the first framed message.
func (h *Handler) handshake() error {
	advert := []byte("WIRED/1.0 wired-schema/1\n")
	if _, err := h.conn.Write(advert); err != nil {
		return err
	}
	line, err := h.r.ReadString('\n')
	if err != nil {
		return err
	}
	if len(line) == 0 {
		return errors.New("empty handshake preamble")
	}
	return nil
}

// messageLoop reads one framed message at a time, schema-validates
// and dispatches it, and writes back whatever reply Dispatch
// produces, per spec.md §4.1 step 4-5.
func (h *Handler) messageLoop() {
	for {
		if err := h.conn.SetReadDeadline(time.Now().Add(inactivityCap)); err != nil {
			return
		}
		raw, err := proto.ReadFrame(h.r)
		if err != nil {
			if errors.Is(err, io.EOF) || isTimeout(err) {
				return
			}
			log.Printf("session %d: read frame: %v", h.user.ID, err)
			return
		}
		h.user.Touch()

		payload, ok := proto.VerifyAndStrip(h.checksum, raw)
		if !ok {
			h.writeError("invalid_message")
			continue
		}
		if h.cipher != nil {
			payload = h.cipher.Decrypt(payload)
		}
		payload, err = proto.Decompress(h.compress, payload)
		if err != nil {
			h.writeError("invalid_message")
			continue
		}

		msg, err := proto.Decode(h.svc.Schema, payload)
		if err != nil {
			h.writeError("invalid_message")
			continue
		}
		logging.Debug("session %d: recv %s", h.user.ID, msg.Name)

		reply := dispatch.Dispatch(h.svc, h.user, msg)

		// Apply negotiated options at the exact points spec.md §4.1
		// step 2/§4.2 require: compression/checksum take effect
		// starting with the server_info reply itself; the cipher
		// takes effect starting with the login reply, never the
		// send_login frame that carried the wrapped session key.
		switch msg.Name {
		case "client_info":
			h.compress = h.user.NegotiatedCompress()
			h.checksum = h.user.NegotiatedChecksum()
		case "send_login":
			if c := h.user.SessionCipher(); c != nil {
				h.cipher = c
			}
		}

		if reply != nil {
			logging.Debug("session %d: send %s", h.user.ID, reply.Name)
			if err := h.write(reply); err != nil {
				log.Printf("session %d: write reply: %v", h.user.ID, err)
				return
			}
			// End-to-end scenario 2: a successful login reply is
			// immediately followed by the account's privileges.
			if msg.Name == "send_login" && reply.Name == "login" {
				if acc := h.user.GetAccount(); acc != nil {
					if err := h.write(dispatch.PrivilegesMessage(acc)); err != nil {
						log.Printf("session %d: write privileges push: %v", h.user.ID, err)
						return
					}
				}
			}
		}

		// The OOB byte phase (spec.md §4.6/GLOSSARY) rides this same
		// connection, unframed, immediately after the control reply
		// that announces it.
		if reply != nil && reply.Name == "okay" {
			switch msg.Name {
			case "transfer.download":
				h.streamDownload()
			case "transfer.upload":
				h.streamUpload()
			}
		}
	}
}

// pingLoop sends send_ping every pingInterval until the connection is
// torn down, per spec.md §4.1's ping protocol.
func (h *Handler) pingLoop() {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := h.write(schema.NewMessage("send_ping")); err != nil {
				return
			}
		case <-h.stopPing:
			return
		}
	}
}

// deliver is connuser.User's notify callback: it renders an
// asynchronous event as a P7 message and writes it, serialized
// against ordinary reply writes by the same writeMu, per spec.md
// §4.1's "all outbound writes ... serialized by a per-session lock."
func (h *Handler) deliver(event string, args map[string]any) {
	m := schema.NewMessage(event)
	for k, v := range args {
		m.Values[k] = v
	}
	if err := h.write(m); err != nil {
		log.Printf("session %d: deliver %s: %v", h.user.ID, event, err)
	}
}

func (h *Handler) write(m *schema.Message) error {
	body, err := proto.Encode(m)
	if err != nil {
		return err
	}
	body, err = proto.Compress(h.compress, body)
	if err != nil {
		return err
	}
	if h.cipher != nil {
		body = h.cipher.Encrypt(body)
	}
	body = proto.Append(h.checksum, body)

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if err := h.conn.SetWriteDeadline(time.Now().Add(inactivityCap)); err != nil {
		return err
	}
	return proto.WriteFrame(h.conn, body)
}

func (h *Handler) writeError(code string) {
	m := schema.NewMessage("error")
	if spec, ok := h.svc.Schema.Field("wired.error"); ok {
		if n, ok := spec.Enum[code]; ok {
			m.SetEnum("wired.error", n)
		}
	}
	if err := h.write(m); err != nil {
		log.Printf("session %d: write error reply: %v", h.user.ID, err)
	}
}

// cleanup runs spec.md §4.1 step 5's disconnect teardown: leave every
// chat the session joined, cancel any pending transfer, and
// unregister from the server-wide registry.
func (h *Handler) cleanup() {
	close(h.stopPing)
	for _, chatID := range h.user.SubscribedChats() {
		if c, err := h.svc.Chat.Get(chatID); err == nil {
			_, _ = c.Leave(h.user.ID)
		}
	}
	if t := h.user.GetPendingTransfer(); t != nil {
		h.svc.Transfers.Dequeue(t)
		h.user.ClearPendingTransfer()
	}
	h.svc.Registry.Unregister(h.user.ID)
	if acc := h.user.GetAccount(); acc != nil {
		h.svc.Events.Record(sessionKeyFor(h.user), "user.logout", acc.Name, h.user.Nick, acc.Name, h.user.RemoteIP)
	}
	h.conn.Close()
	log.Printf("session %d: disconnected", h.user.ID)
}

func sessionKeyFor(u *connuser.User) string {
	return "conn-" + u.AccountName()
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
