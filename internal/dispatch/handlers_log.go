package dispatch

import (
	"fmt"
	"time"

	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/schema"
)

func init() {
	register("log.get_log", connuser.StageLoggedIn, handleGetLog)
	register("log.subscribe", connuser.StageLoggedIn, handleLogSubscribe)
	register("event.get_first_time", connuser.StageLoggedIn, handleGetFirstEventTime)
	register("event.get_events", connuser.StageLoggedIn, handleGetEvents)
	register("event.subscribe", connuser.StageLoggedIn, handleEventSubscribe)
}

// formatLogLine renders an audit event row as the single text line
// log.message carries, in the teacher's log.Printf "who did what"
// order.
func formatLogLine(name, nick, login, ip string, when time.Time) string {
	return fmt.Sprintf("%s %s (%s@%s) %s", when.Format(time.RFC3339), name, login, ip, nick)
}

// handleGetLog replays recent audit history to the caller as a burst
// of log.message notifications, then acknowledges log.get_log itself
// -- the same push-then-okay shape chat history dumps use, since
// log.line is a single-value field rather than a list field.
func handleGetLog(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.ViewLog {
		return nil, account.ErrPermissionDenied
	}
	from, err := svc.Events.FirstEventTime()
	if err != nil {
		return nil, err
	}
	rows, err := svc.Events.Range(from, time.Now())
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		u.Notify("log.message", map[string]any{
			"log.line": formatLogLine(row.Name, row.Nick, row.Login, row.IP, row.Time),
		})
	}
	return okayMessage(), nil
}

func handleLogSubscribe(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.ViewLog {
		return nil, account.ErrPermissionDenied
	}
	u.SetLogSubscribed(true)
	return okayMessage(), nil
}

func handleGetFirstEventTime(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.ViewEvents {
		return nil, account.ErrPermissionDenied
	}
	t, err := svc.Events.FirstEventTime()
	if err != nil {
		return nil, err
	}
	reply := schema.NewMessage("event.get_first_time")
	reply.SetDate("event.time", t)
	return reply, nil
}

// handleGetEvents replays every event in range as event.event
// notifications, mirroring handleGetLog's push-then-okay shape.
func handleGetEvents(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.ViewEvents {
		return nil, account.ErrPermissionDenied
	}
	from, _ := msg.Date("event.time")
	to := time.Now()
	rows, err := svc.Events.Range(from, to)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		u.Notify("event.event", map[string]any{
			"event.name":       row.Name,
			"event.parameters": []string{row.Parameters},
			"event.time":       row.Time,
		})
	}
	return okayMessage(), nil
}

func handleEventSubscribe(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.ViewEvents {
		return nil, account.ErrPermissionDenied
	}
	u.SetEventSubscribed(true)
	return okayMessage(), nil
}
