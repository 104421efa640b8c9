package store

import "context"

// ListGenerated returns the generation log, newest first, as stored.
func (s *Store) ListGenerated(ctx context.Context) ([]GeneratedContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadGenerated(ctx)
}

// AppendGenerated logs a new entry at the head of the log and returns it.
func (s *Store) AppendGenerated(ctx context.Context, in GeneratedInput) (GeneratedContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadGenerated(ctx)
	if err != nil {
		return GeneratedContent{}, err
	}

	taken := make(map[string]bool, len(list))
	for _, g := range list {
		taken[g.ID] = true
	}
	id, err := s.freshID(taken)
	if err != nil {
		return GeneratedContent{}, err
	}

	item := GeneratedContent{
		ID:        id,
		StudentID: in.StudentID,
		Category:  in.Category,
		Content:   in.Content,
		CharCount: in.CharCount,
		Style:     in.Style,
		CreatedAt: s.now().UTC(),
	}

	list = append([]GeneratedContent{item}, list...)
	if err := s.save(ctx, SlotGenerated, list); err != nil {
		return GeneratedContent{}, err
	}
	return item, nil
}

func (s *Store) loadGenerated(ctx context.Context) ([]GeneratedContent, error) {
	var list []GeneratedContent
	_, malformed, err := s.load(ctx, SlotGenerated, &list)
	if err != nil {
		return nil, err
	}
	if malformed || list == nil {
		return []GeneratedContent{}, nil
	}
	return list, nil
}
