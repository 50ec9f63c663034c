package store

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store owns the single SQL database file spec.md §6 describes. All
// multi-statement mutations use db.Transaction, gorm's wrapper around
// BEGIN/COMMIT/ROLLBACK, matching spec.md §5's "multi-step
// modifications use explicit BEGIN IMMEDIATE / COMMIT / ROLLBACK".
type Store struct {
	db *gorm.DB
}

// Open opens (creating if absent) the database file at path and runs
// additive migrations up to SchemaVersion.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrating database %s: %w", path, err)
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var allModels = []any{
	&VersionRow{},
	&UserRow{},
	&GroupRow{},
	&BanRow{},
	&TopicRow{},
	&BoardRow{},
	&ThreadRow{},
	&PostRow{},
	&IndexRow{},
	&IndexMetadataRow{},
	&EventRow{},
	&ServerRow{},
}

// migrate applies additive, per-component schema migrations. Every
// table here is versioned at SchemaVersion 1 today; future additive
// changes bump the recorded version for the affected component and
// branch here, the way the teacher's config package version-gates
// config file upgrades.
func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(allModels...); err != nil {
		return err
	}

	for _, component := range []string{
		"users", "groups", "banlist", "topic", "boards", "threads",
		"posts", "index", "events", "servers",
	} {
		var v VersionRow
		err := s.db.First(&v, "component = ?", component).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			if err := s.db.Create(&VersionRow{Component: component, Version: SchemaVersion}).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		case v.Version < SchemaVersion:
			log.Printf("INFO: store: migrating %s from version %d to %d", component, v.Version, SchemaVersion)
			v.Version = SchemaVersion
			if err := s.db.Save(&v).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// DB exposes the underlying *gorm.DB for component packages that need
// direct query access beyond the thin wrappers in this package;
// internal/board is the one that uses it.
func (s *Store) DB() *gorm.DB { return s.db }
