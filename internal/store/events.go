package store

import "time"

// AppendEvent inserts an audit log row, per spec.md §3 Event. Callers
// (internal/eventlog) are responsible for the "suppress duplicate
// informational events from the same session" rule spec.md describes;
// the store layer is a dumb append + range query.
func (s *Store) AppendEvent(row *EventRow) error {
	row.Time = time.Now()
	return s.db.Create(row).Error
}

func (s *Store) FirstEventTime() (*time.Time, error) {
	var row EventRow
	err := s.db.Order("time ASC").First(&row).Error
	if err != nil {
		return nil, nil
	}
	return &row.Time, nil
}

// EventsInRange returns events between from and to inclusive, ordered
// chronologically, per spec.md §8 "time-range queries".
func (s *Store) EventsInRange(from, to time.Time) ([]EventRow, error) {
	var rows []EventRow
	if err := s.db.Where("time >= ? AND time <= ?", from, to).Order("time").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
