// Package banlist implements spec.md §3/§4 ban list: an IP (with
// "*"/"?" wildcard matching) plus optional expiration, consulted on
// login. Grounded on original_source/wired/banlist.c for the
// wildcard-match + expiry-pruning semantics, backed by
// internal/store's SQL banlist table instead of the source's flat
// file / SQLite-via-libwired split.
package banlist

import (
	"time"

	"github.com/stlalpha/wired/internal/store"
)

type Banlist struct {
	store *store.Store
}

func New(s *store.Store) *Banlist {
	return &Banlist{store: s}
}

// IsBanned reports whether ip matches any unexpired banlist row,
// per spec.md §8: "is_banned(ip) returns true iff there exists an
// unexpired row whose wildcard pattern matches ip."
func (b *Banlist) IsBanned(ip string) (bool, error) {
	rows, err := b.store.ActiveBans()
	if err != nil {
		return false, err
	}
	now := time.Now()
	for _, row := range rows {
		if row.ExpirationTime != nil && row.ExpirationTime.Before(now) {
			continue
		}
		if wildcardMatch(row.IP, ip) {
			return true, nil
		}
	}
	return false, nil
}

// AddBan inserts or replaces a ban entry.
func (b *Banlist) AddBan(ip string, expiration *time.Time) error {
	return b.store.AddBan(ip, expiration)
}

// DeleteBan removes a ban entry by its literal pattern.
func (b *Banlist) DeleteBan(ip string) error {
	return b.store.DeleteBan(ip)
}

// List returns every unexpired ban, pruning expired rows as a side
// effect, per spec.md §3: "Expired rows are pruned on the next query."
func (b *Banlist) List() ([]store.BanRow, error) {
	return b.store.ActiveBans()
}

// wildcardMatch matches s against pattern, where "*" matches any run
// of characters and "?" matches exactly one, the glob semantics
// spec.md's GLOSSARY-adjacent ban description implies.
func wildcardMatch(pattern, s string) bool {
	return globMatch([]rune(pattern), []rune(s))
}

func globMatch(pattern, s []rune) bool {
	if len(pattern) == 0 {
		return len(s) == 0
	}
	switch pattern[0] {
	case '*':
		if globMatch(pattern[1:], s) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if globMatch(pattern[1:], s[i+1:]) {
				return true
			}
		}
		return false
	case '?':
		if len(s) == 0 {
			return false
		}
		return globMatch(pattern[1:], s[1:])
	default:
		if len(s) == 0 || s[0] != pattern[0] {
			return false
		}
		return globMatch(pattern[1:], s[1:])
	}
}
