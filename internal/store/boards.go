package store

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBoardNotFound  = errors.New("board_not_found")
	ErrBoardExists    = errors.New("board_exists")
	ErrThreadNotFound = errors.New("thread_not_found")
	ErrPostNotFound   = errors.New("post_not_found")
)

func (s *Store) GetBoard(name string) (*BoardRow, error) {
	var row BoardRow
	if err := s.db.First(&row, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *Store) ListBoards() ([]BoardRow, error) {
	var rows []BoardRow
	if err := s.db.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) AddBoard(row *BoardRow) error {
	var existing int64
	s.db.Model(&BoardRow{}).Where("name = ?", row.Name).Count(&existing)
	if existing > 0 {
		return ErrBoardExists
	}
	return s.db.Create(row).Error
}

// RenameBoard renames a board and, per spec.md §4.8, recursively
// rewrites every child board whose name has the old prefix plus the
// thread rows' board column, in the same transaction.
func (s *Store) RenameBoard(oldName, newName string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return renameBoardPrefix(tx, oldName, newName)
	})
}

// MoveBoard is RenameBoard under a different wire name: spec.md's
// move_board and rename_board share identical store semantics (a
// board "name" already encodes its full path, so moving and renaming
// are both just a prefix rewrite).
func (s *Store) MoveBoard(oldName, newName string) error {
	return s.RenameBoard(oldName, newName)
}

func renameBoardPrefix(tx *gorm.DB, oldName, newName string) error {
	var existing int64
	tx.Model(&BoardRow{}).Where("name = ?", newName).Count(&existing)
	if existing > 0 {
		return ErrBoardExists
	}

	var boards []BoardRow
	if err := tx.Where("name = ? OR name LIKE ?", oldName, oldName+"/%").Find(&boards).Error; err != nil {
		return err
	}
	if len(boards) == 0 {
		return ErrBoardNotFound
	}

	for _, b := range boards {
		renamed := newName + strings.TrimPrefix(b.Name, oldName)
		if err := tx.Model(&BoardRow{}).Where("name = ?", b.Name).Update("name", renamed).Error; err != nil {
			return err
		}
		if err := tx.Model(&ThreadRow{}).Where("board = ?", b.Name).Update("board", renamed).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteBoard cascades to its threads and their posts, per spec.md §3.
func (s *Store) DeleteBoard(name string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var threads []ThreadRow
		if err := tx.Where("board = ?", name).Find(&threads).Error; err != nil {
			return err
		}
		for _, th := range threads {
			if err := tx.Where("thread = ?", th.ID).Delete(&PostRow{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("board = ?", name).Delete(&ThreadRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("name = ?", name).Delete(&BoardRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBoardNotFound
		}
		return nil
	})
}

func (s *Store) SetBoardInfo(row *BoardRow) error {
	res := s.db.Model(&BoardRow{}).Where("name = ?", row.Name).Updates(map[string]any{
		"owner": row.Owner, "group": row.Group, "mode": row.Mode,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBoardNotFound
	}
	return nil
}

// ThreadWithStats bundles a thread with the correlated-subquery fields
// spec.md §4.8 get_threads streams: reply count and latest reply.
type ThreadWithStats struct {
	ThreadRow
	Replies        int64
	LatestReplyID  *uuid.UUID
	LatestReplyAt  *time.Time
}

func (s *Store) GetThreads(board string) ([]ThreadWithStats, error) {
	var threads []ThreadRow
	if err := s.db.Where("board = ?", board).Order("creation_time").Find(&threads).Error; err != nil {
		return nil, err
	}
	out := make([]ThreadWithStats, 0, len(threads))
	for _, th := range threads {
		stat := ThreadWithStats{ThreadRow: th}
		s.db.Model(&PostRow{}).Where("thread = ?", th.ID).Count(&stat.Replies)

		var latest PostRow
		err := s.db.Where("thread = ?", th.ID).Order("creation_time DESC").First(&latest).Error
		if err == nil {
			stat.LatestReplyID = &latest.ID
			stat.LatestReplyAt = &latest.CreationTime
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		out = append(out, stat)
	}
	return out, nil
}

func (s *Store) GetThread(id uuid.UUID) (*ThreadRow, error) {
	var row ThreadRow
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *Store) GetPosts(thread uuid.UUID) ([]PostRow, error) {
	var rows []PostRow
	if err := s.db.Where("thread = ?", thread).Order("creation_time").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) AddThread(row *ThreadRow) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreationTime = time.Now()
	return s.db.Create(row).Error
}

func (s *Store) EditThread(id uuid.UUID, subject, body string) error {
	now := time.Now()
	res := s.db.Model(&ThreadRow{}).Where("id = ?", id).Updates(map[string]any{
		"subject": subject, "body": body, "modification_time": &now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrThreadNotFound
	}
	return nil
}

func (s *Store) MoveThread(id uuid.UUID, newBoard string) error {
	res := s.db.Model(&ThreadRow{}).Where("id = ?", id).Update("board", newBoard)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrThreadNotFound
	}
	return nil
}

// DeleteThread cascades to its posts, per spec.md §3.
func (s *Store) DeleteThread(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread = ?", id).Delete(&PostRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&ThreadRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrThreadNotFound
		}
		return nil
	})
}

func (s *Store) AddPost(row *PostRow) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreationTime = time.Now()
	return s.db.Create(row).Error
}

func (s *Store) EditPost(id uuid.UUID, body string) error {
	now := time.Now()
	res := s.db.Model(&PostRow{}).Where("id = ?", id).Updates(map[string]any{
		"body": body, "modification_time": &now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (s *Store) DeletePost(id uuid.UUID) error {
	res := s.db.Where("id = ?", id).Delete(&PostRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}
