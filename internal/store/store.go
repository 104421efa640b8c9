/*
Package store is the local record store: the only gateway to the persisted
student roster, observation records and generated-content log.

Each collection lives in one slot of a storage.KV backend as a JSON array.
Every mutation reads the slot, applies one logical change and writes the full
collection back, so a write is all-or-nothing from the caller's view.

Invariants:
  - the roster is kept sorted ascending by number after every mutation
  - at most one observation record exists per (studentId, category, subCategory, point)
  - the generated log is newest-first; entries are only ever prepended

Operations are serialized by a mutex within one process. Two processes sharing
a backend are not coordinated: the last write wins.
*/
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/khanglvm/recordbook/internal/logger"
	"github.com/khanglvm/recordbook/internal/storage"
)

// Slot keys in the key-value backend.
const (
	SlotStudents  = "ai_records_students"
	SlotRecords   = "ai_records_data"
	SlotGenerated = "ai_records_generated"
)

// maxIDAttempts bounds re-draws when a fresh id collides with a stored one.
const maxIDAttempts = 8

// Store implements the record operations over a KV backend.
type Store struct {
	kv   storage.KV
	now  func() time.Time
	ids  IDGenerator
	seed []Student
	log  *logger.Logger
	mu   sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for createdAt and time-derived ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs sets the id generator.
func WithIDs(ids IDGenerator) Option {
	return func(s *Store) { s.ids = ids }
}

// WithSeed replaces the default roster installed on first use.
func WithSeed(seed []Student) Option {
	return func(s *Store) { s.seed = append([]Student(nil), seed...) }
}

// WithLogger sets the logger used for recovery warnings.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New creates a store over kv.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:   kv,
		now:  time.Now,
		seed: DefaultSeed(),
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = NewTimeIDs(s.now)
	}
	s.log = s.log.With("component", "store")
	sortStudents(s.seed)
	return s
}

// Bootstrap installs the seed roster and empty record/generated collections
// into every slot that does not exist yet. Existing slots are left alone.
func (s *Store) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadStudents(ctx); err != nil {
		return err
	}

	for _, slot := range []string{SlotRecords, SlotGenerated} {
		_, found, err := s.kv.Get(ctx, slot)
		if err != nil {
			return &StorageError{Op: "read", Slot: slot, Err: err}
		}
		if found {
			continue
		}
		if err := s.save(ctx, slot, []struct{}{}); err != nil {
			return err
		}
	}
	return nil
}

// Reset deletes all three slots. The next read reseeds the roster.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slot := range []string{SlotStudents, SlotRecords, SlotGenerated} {
		if err := s.kv.Delete(ctx, slot); err != nil {
			return &StorageError{Op: "write", Slot: slot, Err: err}
		}
	}
	return nil
}

// Stats counts the collections.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.loadStudents(ctx)
	if err != nil {
		return Stats{}, err
	}
	records, err := s.loadRecords(ctx)
	if err != nil {
		return Stats{}, err
	}
	generated, err := s.loadGenerated(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Students:          len(students),
		Records:           len(records),
		Generated:         len(generated),
		RecordsByCategory: make(map[string]int),
	}
	withRecord := make(map[string]bool)
	for _, r := range records {
		stats.RecordsByCategory[r.Category]++
		withRecord[r.StudentID] = true
	}
	for _, st := range students {
		if withRecord[st.ID] {
			stats.StudentsWithRecord++
		}
	}
	return stats, nil
}

// load reads slot into dst. found is false when the slot is absent; malformed
// is true when the stored value is not a JSON array of the expected shape.
func (s *Store) load(ctx context.Context, slot string, dst any) (found, malformed bool, err error) {
	raw, found, err := s.kv.Get(ctx, slot)
	if err != nil {
		return false, false, &StorageError{Op: "read", Slot: slot, Err: err}
	}
	if !found {
		return false, false, nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		// "null", objects and scalars are not collections
		s.log.Warn("discarding non-array slot", "slot", slot)
		return true, true, nil
	}
	if err := checkElements(raw); err != nil {
		s.log.Warn("discarding malformed slot", "slot", slot, "error", err)
		return true, true, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn("discarding malformed slot", "slot", slot, "error", err)
		return true, true, nil
	}
	return true, false, nil
}

// checkElements requires every array element to be an object with a
// non-empty string id. One bad element condemns the whole slot.
func checkElements(raw []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return err
	}
	for i, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			return fmt.Errorf("element %d is not an object", i)
		}
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(elem, &head); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if head.ID == "" {
			return fmt.Errorf("element %d has no id", i)
		}
	}
	return nil
}

// save serializes v and writes it to slot in one backend call.
func (s *Store) save(ctx context.Context, slot string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", slot, err)
	}
	if err := s.kv.Set(ctx, slot, data); err != nil {
		return &StorageError{Op: "write", Slot: slot, Err: err}
	}
	return nil
}

// freshID draws ids until one is not in taken.
func (s *Store) freshID(taken map[string]bool) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.ids.Next()
		if !taken[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not assign a unique id after %d attempts", maxIDAttempts)
}

// freshBatch draws n ids distinct from each other and from taken.
func (s *Store) freshBatch(n int, taken map[string]bool) ([]string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		ids := s.ids.Batch(n)
		seen := make(map[string]bool, n)
		ok := len(ids) == n
		for _, id := range ids {
			if taken[id] || seen[id] {
				ok = false
				break
			}
			seen[id] = true
		}
		if ok {
			return ids, nil
		}
	}
	return nil, fmt.Errorf("could not assign %d unique ids after %d attempts", n, maxIDAttempts)
}
