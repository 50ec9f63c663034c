package store

import (
	"bufio"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// MigrateLegacyFiles imports the pre-database flat files a pre-1.x
// wired install leaves behind, then deletes them, grounded on
// original_source/wired/banlist.c's wd_banlist_initialize and
// original_source/wired/chats.c's wd_chats_initialize: both read a
// root-relative flat file once at startup, fold it into the SQL
// tables this package already owns, and remove the file so the
// migration never repeats.
func (s *Store) MigrateLegacyFiles(dir string) error {
	if err := s.migrateLegacyBanlist(filepath.Join(dir, "Banlist.txt")); err != nil {
		return err
	}
	// The legacy "Topic.txt" flat file predates topic being a SQL row
	// (internal/chat.Chat.SetTopic already persists there); the
	// original source just deletes it unconditionally on startup once
	// the table exists, so we do the same instead of inventing a
	// parser for a format no supported version still writes.
	removeIfExists(filepath.Join(dir, "Topic.txt"))
	return nil
}

func (s *Store) migrateLegacyBanlist(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	var imported int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.AddBan(line, nil); err != nil {
			return err
		}
		imported++
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	log.Printf("INFO: store: migrated %d banlist entries from %s", imported, path)
	return os.Remove(path)
}

func removeIfExists(path string) {
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			log.Printf("WARN: store: could not remove legacy file %s: %v", path, err)
		} else {
			log.Printf("INFO: store: removed legacy file %s", path)
		}
	}
}
