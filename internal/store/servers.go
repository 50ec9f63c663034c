package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// UpsertServer persists a tracker-registered server row, including
// its cipher material, so that "a restart does not lose cipher
// material" per spec.md §3.
func (s *Store) UpsertServer(row *ServerRow) error {
	return s.db.Save(row).Error
}

func (s *Store) GetServer(ip string, port uint32) (*ServerRow, error) {
	var row ServerRow
	err := s.db.First(&row, "ip = ? AND port = ?", ip, port).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) ActiveServers() ([]ServerRow, error) {
	var rows []ServerRow
	if err := s.db.Where("active = ?", true).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeactivateStaleServers marks inactive any server whose last update
// predates the cutoff, subtracting counters happens at the caller
// (internal/tracker) which holds the live in-memory aggregate, per
// spec.md §4.9.
func (s *Store) DeactivateStaleServers(cutoff time.Time) ([]ServerRow, error) {
	var stale []ServerRow
	if err := s.db.Where("active = ? AND last_update_time < ?", true, cutoff).Find(&stale).Error; err != nil {
		return nil, err
	}
	if len(stale) > 0 {
		if err := s.db.Model(&ServerRow{}).Where("active = ? AND last_update_time < ?", true, cutoff).Update("active", false).Error; err != nil {
			return nil, err
		}
	}
	return stale, nil
}
