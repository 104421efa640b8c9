package store

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out record identities.
type IDGenerator interface {
	// Next returns one new id.
	Next() string

	// Batch returns n ids that are distinct from each other.
	Batch(n int) []string
}

// TimeIDs derives ids from the clock's millisecond. A second id within the same
// millisecond (or after the clock stepped back) gets a ".<n>" counter suffix, and
// batch ids are "<base>-<index>", so no two ids from one generator collide.
type TimeIDs struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
	seq  int
}

// NewTimeIDs creates a time-derived generator. A nil clock means time.Now.
func NewTimeIDs(now func() time.Time) *TimeIDs {
	if now == nil {
		now = time.Now
	}
	return &TimeIDs{now: now}
}

func (g *TimeIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms > g.last {
		g.last = ms
		g.seq = 0
		return strconv.FormatInt(ms, 10)
	}

	g.seq++
	return fmt.Sprintf("%d.%d", g.last, g.seq)
}

func (g *TimeIDs) Batch(n int) []string {
	base := g.Next()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", base, i)
	}
	return ids
}

// UUIDs issues random version 4 UUIDs.
type UUIDs struct{}

func (UUIDs) Next() string {
	return uuid.NewString()
}

func (UUIDs) Batch(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	return ids
}

// NewIDGenerator returns the generator for a configured scheme ("time" or "uuid").
func NewIDGenerator(scheme string, now func() time.Time) (IDGenerator, error) {
	switch scheme {
	case "", "time":
		return NewTimeIDs(now), nil
	case "uuid":
		return UUIDs{}, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q (want time or uuid)", scheme)
	}
}
