package dispatch

import (
	"errors"
	"strings"
	"time"

	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/schema"
	"github.com/stlalpha/wired/internal/store"
)

var errNotRegistered = errors.New("not_registered")

func init() {
	register("tracker.get_categories", connuser.StageLoggedIn, handleGetCategories)
	register("tracker.get_servers", connuser.StageLoggedIn, handleGetServers)
	register("tracker.send_register", connuser.StageLoggedIn, handleTrackerRegister)
	register("tracker.send_update", connuser.StageLoggedIn, handleTrackerUpdate)
}

func handleGetCategories(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.GetTrackerInfo {
		return nil, account.ErrPermissionDenied
	}
	reply := schema.NewMessage("tracker.get_categories")
	reply.SetList("tracker.category", []string{svc.TrackerCategory})
	return reply, nil
}

// handleGetServers streams the active tracker set as one
// tracker.get_servers notification per server, per spec.md §4.9.
func handleGetServers(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.GetTrackerInfo {
		return nil, account.ErrPermissionDenied
	}
	rows, err := svc.Store.ActiveServers()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		u.Notify("tracker.get_servers", map[string]any{
			"tracker.name":        row.Name,
			"tracker.description": row.Description,
			"tracker.category":    row.Category,
			"tracker.port":        row.Port,
			"tracker.users":       row.Users,
			"tracker.files":       row.Files,
			"tracker.size":        row.Size,
		})
	}
	return okayMessage(), nil
}

// handleTrackerRegister accepts a registration from a logged-in
// session acting as a tracker client, per spec.md §4.9: it validates
// the declared category against the configured list (blank is always
// accepted) and persists the server row so UDP updates can find it.
func handleTrackerRegister(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	name, _ := msg.String("tracker.name")
	port, _ := msg.Uint32("tracker.port")
	description, _ := msg.String("tracker.description")
	category, _ := msg.String("tracker.category")
	users, _ := msg.Uint32("tracker.users")
	files, _ := msg.Uint32("tracker.files")
	size, _ := msg.Int64("tracker.size")

	if category != "" && !strings.EqualFold(category, svc.TrackerCategory) {
		category = ""
	}

	now := time.Now()
	row := &store.ServerRow{
		IP:             u.RemoteIP,
		Port:           port,
		Category:       category,
		Name:           name,
		Description:    description,
		Users:          users,
		Files:          files,
		Size:           size,
		RegisterTime:   now,
		LastUpdateTime: now,
		Active:         true,
	}
	if err := svc.Store.UpsertServer(row); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

// handleTrackerUpdate refreshes counters and LastUpdateTime for an
// already-registered server; spec.md §4.9's UDP update path hits
// internal/tracker.Server directly, this handler covers the same
// refresh delivered over the TCP session instead.
func handleTrackerUpdate(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	users, _ := msg.Uint32("tracker.users")
	files, _ := msg.Uint32("tracker.files")
	size, _ := msg.Int64("tracker.size")

	rows, err := svc.Store.ActiveServers()
	if err != nil {
		return nil, err
	}
	var row *store.ServerRow
	for i := range rows {
		if rows[i].IP == u.RemoteIP {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		return nil, errNotRegistered
	}
	row.Users = users
	row.Files = files
	row.Size = size
	row.LastUpdateTime = time.Now()
	row.Active = true
	if err := svc.Store.UpsertServer(row); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}
