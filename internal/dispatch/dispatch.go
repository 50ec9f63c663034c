// Package dispatch is spec.md §9's message-name to handler routing
// table: it gates each inbound message on the connection's Stage
// (Connected / GaveClientInfo / LoggedIn), looks up the one handler
// registered for that message name, and translates any error the
// handler returns into a P7 "error" message carrying the matching
// wired.error enum value, per spec.md §6. Grounded on the teacher's
// internal/menu registry.go dispatch-table-by-name pattern, generalized
// from menu-action names to protocol message names.
package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stlalpha/wired/internal/accountsvc"
	"github.com/stlalpha/wired/internal/banlist"
	"github.com/stlalpha/wired/internal/board"
	"github.com/stlalpha/wired/internal/chat"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/eventlog"
	"github.com/stlalpha/wired/internal/index"
	"github.com/stlalpha/wired/internal/schema"
	"github.com/stlalpha/wired/internal/store"
	"github.com/stlalpha/wired/internal/transfer"
	"github.com/stlalpha/wired/internal/vfs"
)

// Services bundles every component a handler may need. One Services
// value is shared by every connection's Dispatcher.
type Services struct {
	Schema    *schema.Schema
	Accounts  *accountsvc.Manager
	Chat      *chat.Manager
	Boards    *board.Manager
	FS        *vfs.FS
	Watcher   *vfs.Watcher
	Index     *index.Indexer
	Transfers *transfer.Manager
	Bans      *banlist.Banlist
	Events    *eventlog.Log
	Registry  *connuser.Registry
	Store     *store.Store

	// TrackerCategory is the single configured category a
	// tracker.send_register must declare to be accepted, per
	// spec.md §4.9 ("validate that the declared category is in the
	// configured list").
	TrackerCategory string

	// DefaultDownloadSpeedLimit/DefaultUploadSpeedLimit are the
	// server-wide transfer throughput caps (bytes/sec; 0 means
	// unlimited) new transfers are stamped with, per spec.md §4.6.
	DefaultDownloadSpeedLimit int64
	DefaultUploadSpeedLimit   int64

	// RequireEncryption restricts handleClientInfo's cipher offer to
	// RSA/AES256 alone, per spec.md §4.1 step 2 ("if the config sets a
	// preferred cipher, restrict the server's offer mask accordingly").
	RequireEncryption bool
}

// Handler processes one validated inbound message for u, returning
// the reply message to send back (nil for "no reply"), or an error
// that Dispatch converts into a P7 "error" message.
type Handler func(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error)

type entry struct {
	minStage connuser.Stage
	fn       Handler
}

var table = map[string]entry{}

func register(name string, minStage connuser.Stage, fn Handler) {
	table[name] = entry{minStage: minStage, fn: fn}
}

var ErrWrongStage = errors.New("message_out_of_sequence")

// Dispatch routes msg to its registered handler, or returns a P7
// "error" message if the message is unknown, arrives out of sequence,
// or its handler fails.
func Dispatch(svc *Services, u *connuser.User, msg *schema.Message) *schema.Message {
	e, ok := table[msg.Name]
	if !ok {
		return errorMessage(svc.Schema, "unrecognized_message")
	}
	if u.CurrentStage() < e.minStage {
		return errorMessage(svc.Schema, "message_out_of_sequence")
	}

	reply, err := e.fn(svc, u, msg)
	if err != nil {
		return errorMessage(svc.Schema, err.Error())
	}
	return reply
}

func errorMessage(sch *schema.Schema, code string) *schema.Message {
	if i := strings.IndexByte(code, ':'); i >= 0 {
		code = code[:i]
	}
	spec, ok := sch.Field("wired.error")
	errNum := int32(0)
	if ok {
		if n, ok := spec.Enum[code]; ok {
			errNum = n
		} else {
			errNum = spec.Enum["internal_error"]
		}
	}
	m := schema.NewMessage("error")
	m.SetEnum("wired.error", errNum)
	return m
}

func okayMessage() *schema.Message {
	return schema.NewMessage("okay")
}

func fieldError(name string) error {
	return fmt.Errorf("invalid_message: missing field %s", name)
}
