// Package connuser holds per-connection session state: the connected
// TCP socket's login/nick/icon/status, its resolved account snapshot,
// and its subscription sets, satisfying the small consumer-side
// interfaces internal/accountsvc, internal/board, and internal/chat
// declare for what a live session must support. Grounded on the
// teacher's internal/session BbsSession (mutex-guarded state struct,
// NodeID identity, idle tracking) generalized from one SSH terminal
// session to one P7 protocol connection.
package connuser

import (
	"net"
	"sync"
	"time"

	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/board"
	"github.com/stlalpha/wired/internal/proto"
	"github.com/stlalpha/wired/internal/transfer"
)

type Stage int

const (
	StageConnected Stage = iota
	StageGaveClientInfo
	StageLoggedIn
)

// User is one connection's live state, per spec.md §3's User entity.
type User struct {
	mu sync.RWMutex

	ID         int32
	Conn       net.Conn
	RemoteIP   string
	ConnectAt  time.Time
	LastActive time.Time

	Stage Stage

	ClientApplication string
	ClientVersion     string

	Account    *account.Account // nil until logged in
	Nick       string
	Color      account.Color
	Status     string
	Icon       []byte
	Idle       bool

	ChatSubscriptions map[uint32]bool
	WatchedPaths      map[string]bool
	LogSubscribed     bool
	EventSubscribed   bool
	AccountsSubscribed bool
	BoardsSubscribed  bool

	pendingTransfer *transfer.Transfer

	// Negotiated handshake state (spec.md §4.1 step 2/§4.2), bridging
	// the dispatch-level client_info/send_login negotiation to the
	// byte-level read/write internal/session drives. serverKey lives
	// only as long as it takes the client to send back a wrapped
	// session key; cipher is nil until send_login establishes one.
	negotiatedCompress proto.Compression
	negotiatedChecksum proto.ChecksumKind
	serverKey          *proto.ServerKey
	cipher             *proto.Cipher

	writeMu sync.Mutex
	notify  func(event string, args map[string]any)
	closed  bool
}

func New(id int32, conn net.Conn, notify func(event string, args map[string]any)) *User {
	now := time.Now()
	remoteIP := ""
	if conn != nil {
		if host, _, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
			remoteIP = host
		}
	}
	return &User{
		ID:                id,
		Conn:              conn,
		RemoteIP:          remoteIP,
		ConnectAt:         now,
		LastActive:        now,
		Stage:             StageConnected,
		ChatSubscriptions: make(map[uint32]bool),
		WatchedPaths:      make(map[string]bool),
		notify:            notify,
	}
}

func (u *User) Touch() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.LastActive = time.Now()
	u.Idle = false
}

func (u *User) IdleDuration() time.Duration {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return time.Since(u.LastActive)
}

func (u *User) CurrentStage() Stage {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.Stage
}

func (u *User) SetStage(s Stage) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Stage = s
}

// GetAccount returns the logged-in account snapshot, or nil.
func (u *User) GetAccount() *account.Account {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.Account
}

func (u *User) SetAccount(a *account.Account) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Account = a
}

func (u *User) SetClientInfo(app, version string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ClientApplication = app
	u.ClientVersion = version
}

func (u *User) SetStatusField(status string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Status = status
}

func (u *User) SetIconField(icon []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Icon = icon
}

func (u *User) SetIdleField(idle bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Idle = idle
}

// SubscribeChat/UnsubscribeChat/SubscribedChats track which chats this
// connection currently belongs to, so broadcastUserChange (the
// dispatcher) can find every chat a changed user shares with others.
func (u *User) SubscribeChat(id uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ChatSubscriptions[id] = true
}

func (u *User) UnsubscribeChat(id uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.ChatSubscriptions, id)
}

func (u *User) SubscribedChats() []uint32 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]uint32, 0, len(u.ChatSubscriptions))
	for id := range u.ChatSubscriptions {
		out = append(out, id)
	}
	return out
}

// WatchDirectory/UnwatchDirectory/WatchedDirectories track file.
// subscribe_directory subscriptions for directory_changed delivery.
func (u *User) WatchDirectory(realDir string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.WatchedPaths[realDir] = true
}

func (u *User) UnwatchDirectory(realDir string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.WatchedPaths, realDir)
}

func (u *User) IsWatching(realDir string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.WatchedPaths[realDir]
}

// SetLogSubscribed/SetEventSubscribed/SetAccountsSubscribed/
// SetBoardsSubscribed/IsLogSubscribed/IsEventSubscribed/
// IsAccountsSubscribed/IsBoardsSubscribed track the remaining
// whole-server subscription toggles (log.subscribe, event.subscribe,
// account.subscribe_accounts, board.subscribe_boards), which unlike
// chat/file subscriptions have no per-resource key.
func (u *User) SetLogSubscribed(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.LogSubscribed = v
}

func (u *User) IsLogSubscribed() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.LogSubscribed
}

func (u *User) SetEventSubscribed(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.EventSubscribed = v
}

func (u *User) IsEventSubscribed() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.EventSubscribed
}

func (u *User) SetAccountsSubscribed(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.AccountsSubscribed = v
}

func (u *User) IsAccountsSubscribed() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.AccountsSubscribed
}

func (u *User) SetBoardsSubscribed(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.BoardsSubscribed = v
}

func (u *User) IsBoardsSubscribed() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.BoardsSubscribed
}

// SetPendingTransfer/GetPendingTransfer/ClearPendingTransfer hold the
// one transfer a connection has queued but not yet started streaming
// bytes for, bridging the dispatch-level transfer.* handshake messages
// to the raw byte phase internal/session drives once the transfer
// reaches queue position 0.
func (u *User) SetPendingTransfer(t *transfer.Transfer) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pendingTransfer = t
}

func (u *User) GetPendingTransfer() *transfer.Transfer {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.pendingTransfer
}

func (u *User) ClearPendingTransfer() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pendingTransfer = nil
}

// SetNegotiation/NegotiatedCompress/NegotiatedChecksum record the
// compression/checksum handleClientInfo picked from the client's
// offered lists, so internal/session can apply them to every frame
// starting with the server_info reply.
func (u *User) SetNegotiation(compress proto.Compression, checksum proto.ChecksumKind) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.negotiatedCompress = compress
	u.negotiatedChecksum = checksum
}

func (u *User) NegotiatedCompress() proto.Compression {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.negotiatedCompress
}

func (u *User) NegotiatedChecksum() proto.ChecksumKind {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.negotiatedChecksum
}

// SetServerKey/GetServerKey hold the RSA keypair handleClientInfo
// generated (when a cipher was negotiated) until handleSendLogin
// unwraps the client's session key with it.
func (u *User) SetServerKey(k *proto.ServerKey) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.serverKey = k
}

func (u *User) GetServerKey() *proto.ServerKey {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.serverKey
}

// SetCipher/SessionCipher hold the AES cipher handleSendLogin derives
// from the unwrapped session key, so internal/session can start
// encrypting starting with the login reply onward (never the
// send_login frame that carried the wrapped key itself).
func (u *User) SetCipher(c *proto.Cipher) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.cipher = c
}

func (u *User) SessionCipher() *proto.Cipher {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.cipher
}

// AccountName/PrimaryGroup/ApplyPrivileges/SetNickColor/Disconnect
// satisfy accountsvc.Session.
func (u *User) AccountName() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.Account == nil {
		return ""
	}
	return u.Account.Name
}

func (u *User) PrimaryGroup() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.Account == nil {
		return ""
	}
	return u.Account.Group
}

func (u *User) ApplyPrivileges(p account.Privileges) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Account != nil {
		u.Account.Privileges = p
	}
}

func (u *User) SetNickColor(nick string, color account.Color) {
	u.mu.Lock()
	u.Nick = nick
	u.Color = color
	u.mu.Unlock()
}

func (u *User) Disconnect(reason string) {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.closed = true
	conn := u.Conn
	u.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	u.notify("disconnected", map[string]any{"reason": reason})
}

// Login/Groups/EditAllThreadsAndPosts/Deliver satisfy board.Subscriber.
func (u *User) Login() string { return u.AccountName() }

func (u *User) Groups() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.Account == nil {
		return nil
	}
	return u.Account.Groups
}

func (u *User) EditAllThreadsAndPosts() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.Account != nil && u.Account.Privileges.EditAllThreadsAndPosts
}

func (u *User) Deliver(event string, b board.Board) {
	u.Notify(event, map[string]any{"board": b})
}

// Notify delivers an asynchronous event to this connection (chat
// lines, board visibility changes, file watch notifications, account
// reloads). The actual framing/writing happens in internal/session,
// which supplies notify at construction time.
func (u *User) Notify(event string, args map[string]any) {
	u.mu.RLock()
	closed := u.closed
	u.mu.RUnlock()
	if closed {
		return
	}
	u.notify(event, args)
}

// Info is a point-in-time, copyable view of a User for listings
// (user.get_users, operator dashboards) that must not hold the live
// mutex.
type Info struct {
	ID       int32
	Nick     string
	Color    account.Color
	Status   string
	Login    string
	Icon     []byte
	IsIdle   bool
	Idle     time.Duration
	RemoteIP string
}

func (u *User) Snapshot() Info {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return Info{
		ID:       u.ID,
		Nick:     u.Nick,
		Color:    u.Color,
		Status:   u.Status,
		Login:    u.loginLocked(),
		Icon:     u.Icon,
		IsIdle:   u.Idle,
		Idle:     time.Since(u.LastActive),
		RemoteIP: u.RemoteIP,
	}
}

func (u *User) loginLocked() string {
	if u.Account == nil {
		return ""
	}
	return u.Account.Name
}
