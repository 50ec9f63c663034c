package store

import (
	"errors"
	"time"

	"github.com/stlalpha/wired/internal/account"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("account_not_found")
	ErrAccountExists   = errors.New("account_exists")
)

func userRowToAccount(r *UserRow) *account.Account {
	a := &account.Account{
		Kind:                account.KindUser,
		Name:                r.Name,
		Password:            r.Password,
		FullName:            r.FullName,
		Comment:             r.Comment,
		Color:               account.Color(r.Color),
		CreationTime:        r.CreationTime,
		ModificationTime:    r.ModificationTime,
		LoginTime:           r.LoginTime,
		EditedBy:            r.EditedBy,
		Groups:              DecodeGroups(r.Groups),
		FilesRoot:           r.FilesRoot,
		Downloads:           r.Downloads,
		DownloadTransferred: r.DownloadTransferred,
		Uploads:             r.Uploads,
		UploadTransferred:   r.UploadTransferred,
		Privileges:          DecodePrivileges(r.PrivilegesJSON),
	}
	if r.Group != nil {
		a.Group = *r.Group
	}
	return a
}

func accountToUserRow(a *account.Account) *UserRow {
	r := &UserRow{
		Name:                a.Name,
		Password:            a.Password,
		FullName:            a.FullName,
		Comment:             a.Comment,
		Color:               int32(a.Color),
		Groups:              EncodeGroups(a.Groups),
		FilesRoot:           a.FilesRoot,
		CreationTime:        a.CreationTime,
		ModificationTime:    a.ModificationTime,
		LoginTime:           a.LoginTime,
		EditedBy:            a.EditedBy,
		Downloads:           a.Downloads,
		DownloadTransferred: a.DownloadTransferred,
		Uploads:             a.Uploads,
		UploadTransferred:   a.UploadTransferred,
		PrivilegesJSON:      EncodePrivileges(a.Privileges),
	}
	if a.Group != "" {
		g := a.Group
		r.Group = &g
	}
	return r
}

func groupRowToAccount(r *GroupRow) *account.Account {
	return &account.Account{
		Kind:             account.KindGroup,
		Name:             r.Name,
		FullName:         r.FullName,
		Comment:          r.Comment,
		Color:            account.Color(r.Color),
		FilesRoot:        r.FilesRoot,
		CreationTime:     r.CreationTime,
		ModificationTime: r.ModificationTime,
		EditedBy:         r.EditedBy,
		Privileges:       DecodePrivileges(r.PrivilegesJSON),
	}
}

func accountToGroupRow(a *account.Account) *GroupRow {
	return &GroupRow{
		Name:             a.Name,
		FullName:         a.FullName,
		Comment:          a.Comment,
		Color:            int32(a.Color),
		FilesRoot:        a.FilesRoot,
		CreationTime:     a.CreationTime,
		ModificationTime: a.ModificationTime,
		EditedBy:         a.EditedBy,
		PrivilegesJSON:   EncodePrivileges(a.Privileges),
	}
}

// ReadUser returns the raw (non-group-resolved) user account.
func (s *Store) ReadUser(name string) (*account.Account, error) {
	var r UserRow
	if err := s.db.First(&r, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return userRowToAccount(&r), nil
}

// ReadGroup returns a group account.
func (s *Store) ReadGroup(name string) (*account.Account, error) {
	var r GroupRow
	if err := s.db.First(&r, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return groupRowToAccount(&r), nil
}

// ListUsers streams all user rows to fn. Returning an error from fn
// stops iteration and is propagated.
func (s *Store) ListUsers(fn func(*account.Account) error) error {
	rows, err := s.db.Model(&UserRow{}).Rows()
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r UserRow
		if err := s.db.ScanRows(rows, &r); err != nil {
			return err
		}
		if err := fn(userRowToAccount(&r)); err != nil {
			return err
		}
	}
	return nil
}

// ListGroups streams all group rows to fn.
func (s *Store) ListGroups(fn func(*account.Account) error) error {
	rows, err := s.db.Model(&GroupRow{}).Rows()
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r GroupRow
		if err := s.db.ScanRows(rows, &r); err != nil {
			return err
		}
		if err := fn(groupRowToAccount(&r)); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser inserts a's row with creation/modification stamped now.
func (s *Store) CreateUser(a *account.Account, editedBy string) error {
	var existing int64
	s.db.Model(&UserRow{}).Where("name = ?", a.Name).Count(&existing)
	if existing > 0 {
		return ErrAccountExists
	}
	a.CreationTime = time.Now()
	a.ModificationTime = a.CreationTime
	a.EditedBy = editedBy
	return s.db.Create(accountToUserRow(a)).Error
}

// CreateGroup inserts a group row.
func (s *Store) CreateGroup(a *account.Account, editedBy string) error {
	var existing int64
	s.db.Model(&GroupRow{}).Where("name = ?", a.Name).Count(&existing)
	if existing > 0 {
		return ErrAccountExists
	}
	a.CreationTime = time.Now()
	a.ModificationTime = a.CreationTime
	a.EditedBy = editedBy
	return s.db.Create(accountToGroupRow(a)).Error
}

// EditUser updates a user's row in a single transaction. If newName
// differs from a.Name, it propagates the rename to board owner/group
// columns, thread/post login columns, and any user's Group reference,
// per spec.md §4.3.
func (s *Store) EditUser(oldName, newName string, a *account.Account) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		a.ModificationTime = time.Now()
		row := accountToUserRow(a)
		row.Name = oldName

		if err := tx.Model(&UserRow{}).Where("name = ?", oldName).Updates(map[string]any{
			"full_name":             row.FullName,
			"comment":               row.Comment,
			"color":                 row.Color,
			"group":                 row.Group,
			"groups":                row.Groups,
			"files_root":            row.FilesRoot,
			"modification_time":     row.ModificationTime,
			"edited_by":             row.EditedBy,
			"privileges_json":       row.PrivilegesJSON,
		}).Error; err != nil {
			return err
		}

		if newName != "" && newName != oldName {
			var existing int64
			tx.Model(&UserRow{}).Where("name = ?", newName).Count(&existing)
			if existing > 0 {
				return ErrAccountExists
			}
			if err := tx.Model(&UserRow{}).Where("name = ?", oldName).Update("name", newName).Error; err != nil {
				return err
			}
			if err := renameLoginEverywhere(tx, oldName, newName); err != nil {
				return err
			}
		}
		return nil
	})
}

// renameLoginEverywhere propagates a user rename to board owner and
// group columns, thread/post author-login columns, and any user row whose
// group column holds the old name, per spec.md §4.3. Users' Groups
// lists are not rewritten.
func renameLoginEverywhere(tx *gorm.DB, oldName, newName string) error {
	if err := tx.Model(&BoardRow{}).Where("owner = ?", oldName).Update("owner", newName).Error; err != nil {
		return err
	}
	if err := tx.Model(&BoardRow{}).Where("\"group\" = ?", oldName).Update("group", newName).Error; err != nil {
		return err
	}
	if err := tx.Model(&ThreadRow{}).Where("author_login = ?", oldName).Update("author_login", newName).Error; err != nil {
		return err
	}
	if err := tx.Model(&PostRow{}).Where("author_login = ?", oldName).Update("author_login", newName).Error; err != nil {
		return err
	}
	if err := tx.Model(&UserRow{}).Where("\"group\" = ?", oldName).Update("group", newName).Error; err != nil {
		return err
	}
	return nil
}

// EditGroup updates a group's row, renaming it and cascading the
// rename the way spec.md §4.3 describes for groups: rewrite
// groups.name, users.group, and every user's Groups list. Rows whose
// Groups list references the old name are materialized first, then
// updated individually -- the spec.md §9 Open Question about not
// mutating a table while iterating a live cursor over it is resolved
// that way here.
func (s *Store) EditGroup(oldName, newName string, a *account.Account) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		a.ModificationTime = time.Now()
		row := accountToGroupRow(a)
		row.Name = oldName

		if err := tx.Model(&GroupRow{}).Where("name = ?", oldName).Updates(map[string]any{
			"full_name":         row.FullName,
			"comment":           row.Comment,
			"color":             row.Color,
			"files_root":        row.FilesRoot,
			"modification_time": row.ModificationTime,
			"edited_by":         row.EditedBy,
			"privileges_json":   row.PrivilegesJSON,
		}).Error; err != nil {
			return err
		}

		if newName != "" && newName != oldName {
			var existing int64
			tx.Model(&GroupRow{}).Where("name = ?", newName).Count(&existing)
			if existing > 0 {
				return ErrAccountExists
			}
			if err := tx.Model(&GroupRow{}).Where("name = ?", oldName).Update("name", newName).Error; err != nil {
				return err
			}
			if err := tx.Model(&UserRow{}).Where("\"group\" = ?", oldName).Update("group", newName).Error; err != nil {
				return err
			}

			var affected []UserRow
			if err := tx.Where("groups LIKE ?", "%"+oldName+"%").Find(&affected).Error; err != nil {
				return err
			}
			for _, u := range affected {
				groups := DecodeGroups(u.Groups)
				changed := false
				for i, g := range groups {
					if g == oldName {
						groups[i] = newName
						changed = true
					}
				}
				if changed {
					if err := tx.Model(&UserRow{}).Where("name = ?", u.Name).Update("groups", EncodeGroups(groups)).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// ChangePassword updates only the password column, per spec.md §4.3.
func (s *Store) ChangePassword(name, sha1hex string) error {
	res := s.db.Model(&UserRow{}).Where("name = ?", name).Update("password", sha1hex)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// RecordTransferStats atomically bumps name's transfer counters by one
// completed transfer of n bytes, per end-to-end scenario 5 ("the
// account's uploads counter is incremented by 1").
func (s *Store) RecordTransferStats(name string, upload bool, n int64) error {
	countCol, bytesCol := "downloads", "download_transferred"
	if upload {
		countCol, bytesCol = "uploads", "upload_transferred"
	}
	res := s.db.Model(&UserRow{}).Where("name = ?", name).Updates(map[string]any{
		countCol:  gorm.Expr(countCol+" + ?", 1),
		bytesCol:  gorm.Expr(bytesCol+" + ?", n),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// DeleteUser removes a user row.
func (s *Store) DeleteUser(name string) error {
	res := s.db.Where("name = ?", name).Delete(&UserRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// DeleteGroup removes a group row and, per spec.md §3's "Deleting a
// group NULLs the group column of users that reference it (trigger
// semantics)" and end-to-end scenario 6, also strips the group from
// every user's additional Groups list.
func (s *Store) DeleteGroup(name string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("name = ?", name).Delete(&GroupRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAccountNotFound
		}

		if err := tx.Model(&UserRow{}).Where("\"group\" = ?", name).Update("group", nil).Error; err != nil {
			return err
		}

		var affected []UserRow
		if err := tx.Where("groups LIKE ?", "%"+name+"%").Find(&affected).Error; err != nil {
			return err
		}
		for _, u := range affected {
			groups := DecodeGroups(u.Groups)
			out := groups[:0]
			changed := false
			for _, g := range groups {
				if g == name {
					changed = true
					continue
				}
				out = append(out, g)
			}
			if changed {
				if err := tx.Model(&UserRow{}).Where("name = ?", u.Name).Update("groups", EncodeGroups(out)).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
