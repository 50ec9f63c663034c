package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrBanNotFound = errors.New("ban_not_found")
var ErrBanExists = errors.New("ban_exists")

// ActiveBans returns every ban row, having first deleted expired ones,
// per spec.md §3: "Expired rows are pruned on the next query."
func (s *Store) ActiveBans() ([]BanRow, error) {
	now := time.Now()
	if err := s.db.Where("expiration_time IS NOT NULL AND expiration_time < ?", now).Delete(&BanRow{}).Error; err != nil {
		return nil, err
	}
	var rows []BanRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) AddBan(ip string, expiration *time.Time) error {
	var existing int64
	s.db.Model(&BanRow{}).Where("ip = ?", ip).Count(&existing)
	if existing > 0 {
		return ErrBanExists
	}
	return s.db.Create(&BanRow{IP: ip, ExpirationTime: expiration}).Error
}

func (s *Store) DeleteBan(ip string) error {
	res := s.db.Where("ip = ?", ip).Delete(&BanRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBanNotFound
	}
	return nil
}

// Topic returns the persisted topic for a chat id, or nil if unset.
func (s *Store) Topic(chatID uint32) (*TopicRow, error) {
	var row TopicRow
	err := s.db.First(&row, "chat_id = ?", chatID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SetTopic upserts the topic for a chat id.
func (s *Store) SetTopic(row *TopicRow) error {
	return s.db.Save(row).Error
}
