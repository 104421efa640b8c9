package store

import "context"

// ListRecords returns records in insertion order, restricted to category
// when it is non-empty.
func (s *Store) ListRecords(ctx context.Context, category string) ([]ObservationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return records, nil
	}

	filtered := make([]ObservationRecord, 0, len(records))
	for _, r := range records {
		if r.Category == category {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// UpsertRecord saves in under its natural key. The first record with the same
// key is overwritten in place, keeping its id and createdAt; any later duplicate
// left by corrupted data stays as it is. Without a match a new record is appended.
//
// Neither studentId nor the taxonomy tuple nor example indices are validated here.
func (s *Store) UpsertRecord(ctx context.Context, in RecordInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadRecords(ctx)
	if err != nil {
		return err
	}

	checked := append([]int{}, in.CheckedExamples...)
	key := in.Key()

	updated := false
	for i := range records {
		if records[i].Key() != key {
			continue
		}
		records[i].StudentID = in.StudentID
		records[i].Category = in.Category
		records[i].SubCategory = in.SubCategory
		records[i].Point = in.Point
		records[i].CheckedExamples = checked
		records[i].Memo = in.Memo
		updated = true
		break
	}

	if !updated {
		taken := make(map[string]bool, len(records))
		for _, r := range records {
			taken[r.ID] = true
		}
		id, err := s.freshID(taken)
		if err != nil {
			return err
		}
		records = append(records, ObservationRecord{
			ID:              id,
			StudentID:       in.StudentID,
			Category:        in.Category,
			SubCategory:     in.SubCategory,
			Point:           in.Point,
			CheckedExamples: checked,
			Memo:            in.Memo,
			CreatedAt:       s.now().UTC(),
		})
	}

	return s.save(ctx, SlotRecords, records)
}

// loadRecords reads the record collection; absent or malformed data reads as empty.
func (s *Store) loadRecords(ctx context.Context) ([]ObservationRecord, error) {
	var records []ObservationRecord
	_, malformed, err := s.load(ctx, SlotRecords, &records)
	if err != nil {
		return nil, err
	}
	if malformed || records == nil {
		return []ObservationRecord{}, nil
	}
	for i := range records {
		if records[i].CheckedExamples == nil {
			records[i].CheckedExamples = []int{}
		}
	}
	return records, nil
}
