// Package accountsvc is the Accounts component of spec.md §4.3: it
// sits above internal/store's raw rows and internal/account's
// privilege model, adding privilege-gated verification, group
// resolution, and live reload broadcast to affected sessions.
package accountsvc

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/store"
)

// Session is the subset of connected-session behavior the Accounts
// component needs for live reload, implemented by internal/connuser.
// Declaring it here (rather than importing connuser) avoids a store
// <-> session import cycle, matching the teacher's pattern of small
// consumer-side interfaces (e.g. internal/menu's executor interfaces).
type Session interface {
	AccountName() string
	PrimaryGroup() string
	ApplyPrivileges(p account.Privileges)
	SetNickColor(nick string, color account.Color)
	Disconnect(reason string)
}

// SessionRegistry enumerates currently connected sessions.
type SessionRegistry interface {
	AllSessions() []Session
}

type Manager struct {
	store *store.Store
	sessions SessionRegistry
}

func NewManager(s *store.Store, sessions SessionRegistry) *Manager {
	return &Manager{store: s, sessions: sessions}
}

var ErrAccountInUse = errors.New("account_in_use")

// HashPassword returns the 40-char hex SHA-1 spec.md §3 mandates as
// the stored password representation. An empty password hashes to
// account.SHA1Empty, matching end-to-end scenario 2.
func HashPassword(plain string) string {
	sum := sha1.Sum([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// ReadUser returns the group-resolved account (spec.md §4.3 read_user).
func (m *Manager) ReadUser(name string) (*account.Account, error) {
	u, err := m.store.ReadUser(name)
	if err != nil {
		return nil, err
	}
	return m.resolve(u)
}

// ReadGroup returns a group account unresolved (groups have no parent).
func (m *Manager) ReadGroup(name string) (*account.Account, error) {
	return m.store.ReadGroup(name)
}

func (m *Manager) resolve(u *account.Account) (*account.Account, error) {
	if u.Group == "" {
		return u, nil
	}
	g, err := m.store.ReadGroup(u.Group)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return u, nil
		}
		return nil, err
	}
	return account.Resolve(u, g), nil
}

// ListUsers streams every user row, resolved, per spec.md §4.3.
func (m *Manager) ListUsers(fn func(*account.Account) error) error {
	return m.store.ListUsers(func(u *account.Account) error {
		resolved, err := m.resolve(u)
		if err != nil {
			return err
		}
		return fn(resolved)
	})
}

// ListGroups streams every group row.
func (m *Manager) ListGroups(fn func(*account.Account) error) error {
	return m.store.ListGroups(fn)
}

// CreateUser verifies actor's privileges against the new account and
// inserts it, per spec.md §4.3.
func (m *Manager) CreateUser(actor *account.Account, a *account.Account) error {
	if err := account.VerifyPrivilegesForUser(actor, a); err != nil {
		return err
	}
	if err := m.store.CreateUser(a, actor.Name); err != nil {
		return err
	}
	m.broadcastAccountsChanged()
	return nil
}

// CreateGroup mirrors CreateUser for group accounts.
func (m *Manager) CreateGroup(actor *account.Account, a *account.Account) error {
	if err := account.VerifyPrivilegesForUser(actor, a); err != nil {
		return err
	}
	if err := m.store.CreateGroup(a, actor.Name); err != nil {
		return err
	}
	m.broadcastAccountsChanged()
	return nil
}

// EditUser verifies, persists (with rename propagation), then live-
// reloads every session whose account this is, per spec.md §4.3.
func (m *Manager) EditUser(actor *account.Account, oldName, newName string, a *account.Account) error {
	if err := account.VerifyPrivilegesForUser(actor, a); err != nil {
		return err
	}
	if err := m.store.EditUser(oldName, newName, a); err != nil {
		return err
	}

	finalName := oldName
	if newName != "" {
		finalName = newName
	}
	resolved, err := m.ReadUser(finalName)
	if err == nil {
		m.reloadSessionsForAccount(finalName, resolved)
	}
	m.broadcastAccountsChanged()
	return nil
}

// EditGroup verifies, persists, and live-reloads every session whose
// primary group is this group (group privileges may have changed the
// resolved overlay for all of its members).
func (m *Manager) EditGroup(actor *account.Account, oldName, newName string, a *account.Account) error {
	if err := account.VerifyPrivilegesForUser(actor, a); err != nil {
		return err
	}
	if err := m.store.EditGroup(oldName, newName, a); err != nil {
		return err
	}

	finalName := oldName
	if newName != "" {
		finalName = newName
	}
	for _, sess := range m.sessions.AllSessions() {
		if sess.PrimaryGroup() == oldName || sess.PrimaryGroup() == finalName {
			resolved, err := m.ReadUser(sess.AccountName())
			if err == nil {
				sess.ApplyPrivileges(resolved.Privileges)
			}
		}
	}
	m.broadcastAccountsChanged()
	return nil
}

func (m *Manager) reloadSessionsForAccount(name string, resolved *account.Account) {
	for _, sess := range m.sessions.AllSessions() {
		if sess.AccountName() == name {
			sess.ApplyPrivileges(resolved.Privileges)
			sess.SetNickColor(resolved.FullName, resolved.Color)
		}
	}
}

func (m *Manager) broadcastAccountsChanged() {
	// No-op: no accounts_changed notification is sent or recorded here,
	// and no other code sends one, so sessions subscribed with
	// account.subscribe_accounts are not told about account changes.
}

// ChangePassword hashes plain and updates only the password column.
func (m *Manager) ChangePassword(name, plain string) error {
	return m.store.ChangePassword(name, HashPassword(plain))
}

// RecordTransfer bumps name's upload/download counters by one
// completed transfer of n bytes, per end-to-end scenario 5.
func (m *Manager) RecordTransfer(name string, upload bool, n int64) error {
	return m.store.RecordTransferStats(name, upload, n)
}

// DeleteUser refuses to delete an in-use account unless
// disconnectUsers is true, in which case matching sessions are torn
// down after the delete, per spec.md §4.3.
func (m *Manager) DeleteUser(name string, disconnectUsers bool) error {
	var inUse []Session
	for _, sess := range m.sessions.AllSessions() {
		if sess.AccountName() == name {
			inUse = append(inUse, sess)
		}
	}
	if len(inUse) > 0 && !disconnectUsers {
		return ErrAccountInUse
	}
	if err := m.store.DeleteUser(name); err != nil {
		return err
	}
	for _, sess := range inUse {
		sess.Disconnect(fmt.Sprintf("account %q deleted", name))
	}
	m.broadcastAccountsChanged()
	return nil
}

// DeleteGroup removes a group, cascading to NULL/strip references
// (handled in store.DeleteGroup) and live-reloads affected sessions.
func (m *Manager) DeleteGroup(name string) error {
	if err := m.store.DeleteGroup(name); err != nil {
		return err
	}
	for _, sess := range m.sessions.AllSessions() {
		if sess.PrimaryGroup() == name {
			resolved, err := m.ReadUser(sess.AccountName())
			if err == nil {
				sess.ApplyPrivileges(resolved.Privileges)
			}
		}
	}
	m.broadcastAccountsChanged()
	return nil
}
