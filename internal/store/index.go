package store

import "gorm.io/gorm"

// ReplaceIndex atomically swaps the full search index, per spec.md
// §4.5 "Periodic reindex runs at a configured interval". Incremental
// single-entry updates use InsertIndexEntry / DeleteIndexEntriesUnder.
func (s *Store) ReplaceIndex(rows []IndexRow) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&IndexRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

func (s *Store) InsertIndexEntry(row *IndexRow) error {
	return s.db.Create(row).Error
}

func (s *Store) DeleteIndexEntriesUnder(virtualPathPrefix string) error {
	return s.db.Where("virtual_path = ? OR virtual_path LIKE ?", virtualPathPrefix, virtualPathPrefix+"/%").
		Delete(&IndexRow{}).Error
}

// SearchIndex returns entries whose name matches a LIKE '%query%',
// restricted to paths under pathPrefix, per spec.md §4.5.
func (s *Store) SearchIndex(query, pathPrefix string) ([]IndexRow, error) {
	var rows []IndexRow
	q := s.db.Where("name LIKE ?", "%"+query+"%")
	if pathPrefix != "" && pathPrefix != "/" {
		q = q.Where("virtual_path = ? OR virtual_path LIKE ?", pathPrefix, pathPrefix+"/%")
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) IndexMetadata(key string) (string, error) {
	var row IndexMetadataRow
	err := s.db.First(&row, "key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

func (s *Store) SetIndexMetadata(key, value string) error {
	return s.db.Save(&IndexMetadataRow{Key: key, Value: value}).Error
}
