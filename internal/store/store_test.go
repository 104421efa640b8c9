package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanglvm/recordbook/internal/storage"
)

// fakeClock advances one millisecond per call unless frozen.
type fakeClock struct {
	t      time.Time
	frozen bool
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	if !c.frozen {
		c.t = c.t.Add(time.Millisecond)
	}
	return now
}

// flakyKV fails reads or writes on demand.
type flakyKV struct {
	*storage.Memory
	failGet bool
	failSet bool
	sets    int
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.failGet {
		return nil, false, storage.ErrUnavailable
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return storage.ErrUnavailable
	}
	f.sets++
	return f.Memory.Set(ctx, key, value)
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory()
	clock := &fakeClock{t: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(kv, opts...), kv
}

func TestFirstRunBootstrap(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	first, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.True(t, sort.SliceIsSorted(first, func(i, j int) bool { return first[i].Number < first[j].Number }))

	_, found, err := kv.Get(ctx, SlotStudents)
	require.NoError(t, err)
	assert.True(t, found, "seed must be persisted")

	second, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmptyRosterIsNotReseeded(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)
	require.NoError(t, kv.Set(ctx, SlotStudents, []byte(`[]`)))

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NotNil(t, students)
}

func TestMalformedRosterIsReseeded(t *testing.T) {
	ctx := context.Background()

	for _, raw := range []string{
		`{broken`, `null`, `{"id":"1"}`, `[{"id":1}]`, `"x"`,
		`[null]`, `[{}]`, `[{"foo":1}]`, `[1]`, `[{"id":""}]`,
		`[{"id":"9","name":"ok"},null]`,
	} {
		t.Run(raw, func(t *testing.T) {
			s, kv := newTestStore(t)
			require.NoError(t, kv.Set(ctx, SlotStudents, []byte(raw)))

			students, err := s.ListStudents(ctx)
			require.NoError(t, err)
			assert.Equal(t, DefaultSeed(), students)
		})
	}
}

func TestCustomSeedIsSorted(t *testing.T) {
	ctx := context.Background()
	seed := SeedFrom([]StudentInput{
		{ClassID: "2-3", Number: 7, Name: "윤하늘"},
		{ClassID: "2-3", Number: 2, Name: "한바다"},
	})
	s, _ := newTestStore(t, WithSeed(seed))

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, 2, students[0].Number)
	assert.Equal(t, "seed-2", students[0].ID)
	assert.Equal(t, "seed-1", students[1].ID)
}

func TestAddStudentKeepsSortOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	created, err := s.AddStudent(ctx, StudentInput{ClassID: "1-1", Number: 0, Name: "앞번호"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "앞번호", created.Name)

	_, err = s.AddStudent(ctx, StudentInput{ClassID: "1-1", Number: 3, Name: "동번호"})
	require.NoError(t, err)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, len(DefaultSeed())+2)
	assert.Equal(t, created.ID, students[0].ID)
	for i := 1; i < len(students); i++ {
		assert.LessOrEqual(t, students[i-1].Number, students[i].Number)
	}

	// equal numbers keep insertion order: the seed's #3 stays before the new #3
	var threes []string
	for _, st := range students {
		if st.Number == 3 {
			threes = append(threes, st.Name)
		}
	}
	assert.Equal(t, []string{"박지호", "동번호"}, threes)
}

func TestAddStudentsBulkIDsAreDistinct(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC), frozen: true}
	s := New(storage.NewMemory(), WithClock(clock.Now))

	before, err := s.ListStudents(ctx)
	require.NoError(t, err)

	// same millisecond for every id drawn below
	single, err := s.AddStudent(ctx, StudentInput{ClassID: "1-1", Number: 10, Name: "단일"})
	require.NoError(t, err)

	batch := make([]StudentInput, 5)
	for i := range batch {
		batch[i] = StudentInput{ClassID: "1-1", Number: 20 - i, Name: "새학생"}
	}
	roster, err := s.AddStudentsBulk(ctx, batch)
	require.NoError(t, err)
	roster2, err := s.AddStudentsBulk(ctx, batch)
	require.NoError(t, err)

	assert.Len(t, roster, len(before)+1+5)
	assert.Len(t, roster2, len(before)+1+10)

	seen := make(map[string]bool)
	for _, st := range roster2 {
		assert.False(t, seen[st.ID], "duplicate id %s", st.ID)
		seen[st.ID] = true
	}
	assert.True(t, seen[single.ID])

	for i := 1; i < len(roster2); i++ {
		assert.LessOrEqual(t, roster2[i-1].Number, roster2[i].Number)
	}
}

func TestAddStudentsBulkReturnsFullRosterAndWritesOnce(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{Memory: storage.NewMemory()}
	s := New(kv)

	_, err := s.ListStudents(ctx)
	require.NoError(t, err)
	writes := kv.sets

	roster, err := s.AddStudentsBulk(ctx, []StudentInput{
		{ClassID: "1-1", Number: 6, Name: "가"},
		{ClassID: "1-1", Number: 7, Name: "나"},
	})
	require.NoError(t, err)
	assert.Len(t, roster, len(DefaultSeed())+2)
	assert.Equal(t, writes+1, kv.sets)

	// empty batch is a no-op read
	roster, err = s.AddStudentsBulk(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, roster, len(DefaultSeed())+2)
	assert.Equal(t, writes+1, kv.sets)
}

func TestBulkIDsAvoidStoredCollisions(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.UnixMilli(1700000000000).UTC(), frozen: true}
	kv := storage.NewMemory()
	// a previous session already used the ids this clock would produce first
	require.NoError(t, kv.Set(ctx, SlotStudents, []byte(`[{"id":"1700000000000-0","classId":"1-1","number":1,"name":"기존"}]`)))

	s := New(kv, WithClock(clock.Now))
	roster, err := s.AddStudentsBulk(ctx, []StudentInput{{ClassID: "1-1", Number: 2, Name: "신규"}})
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.NotEqual(t, roster[0].ID, roster[1].ID)
}

func TestUpsertRecordKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	in := RecordInput{StudentID: "1", Category: "세특", SubCategory: "듣기말하기", Point: "경청태도", CheckedExamples: []int{0, 2}, Memo: "good"}
	require.NoError(t, s.UpsertRecord(ctx, in))

	first, err := s.ListRecords(ctx, "")
	require.NoError(t, err)
	require.Len(t, first, 1)

	in.CheckedExamples = []int{1}
	in.Memo = "better"
	require.NoError(t, s.UpsertRecord(ctx, in))

	after, err := s.ListRecords(ctx, "")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, first[0].ID, after[0].ID)
	assert.True(t, first[0].CreatedAt.Equal(after[0].CreatedAt))
	assert.Equal(t, []int{1}, after[0].CheckedExamples)
	assert.Equal(t, "better", after[0].Memo)
}

func TestUpsertRecordNewKeyAppends(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	base := RecordInput{StudentID: "1", Category: "세특", SubCategory: "듣기말하기", Point: "경청태도"}
	require.NoError(t, s.UpsertRecord(ctx, base))

	other := base
	other.Point = "발표력"
	require.NoError(t, s.UpsertRecord(ctx, other))

	otherStudent := base
	otherStudent.StudentID = "2"
	require.NoError(t, s.UpsertRecord(ctx, otherStudent))

	records, err := s.ListRecords(ctx, "")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.NotEqual(t, records[1].ID, records[2].ID)
	assert.True(t, records[0].CreatedAt.Before(records[1].CreatedAt))

	// nil examples persist as an empty list
	assert.NotNil(t, records[0].CheckedExamples)
	assert.Empty(t, records[0].CheckedExamples)
}

func TestUpsertRecordAcceptsLooseReferences(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.UpsertRecord(ctx, RecordInput{
		StudentID:       "no-such-student",
		Category:        "없는영역",
		SubCategory:     "x",
		Point:           "y",
		CheckedExamples: []int{99, -1},
	}))

	records, err := s.ListRecords(ctx, "없는영역")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []int{99, -1}, records[0].CheckedExamples)
}

func TestUpsertRecordUpdatesOnlyFirstDuplicate(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	corrupted := `[
		{"id":"a","studentId":"1","category":"세특","subCategory":"s","point":"p","checkedExamples":[0],"memo":"one","createdAt":"2024-01-01T00:00:00Z"},
		{"id":"b","studentId":"1","category":"세특","subCategory":"s","point":"p","checkedExamples":[1],"memo":"two","createdAt":"2024-01-02T00:00:00Z"}
	]`
	require.NoError(t, kv.Set(ctx, SlotRecords, []byte(corrupted)))

	require.NoError(t, s.UpsertRecord(ctx, RecordInput{StudentID: "1", Category: "세특", SubCategory: "s", Point: "p", CheckedExamples: []int{2}, Memo: "new"}))

	records, err := s.ListRecords(ctx, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "new", records[0].Memo)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, "two", records[1].Memo)
}

func TestListRecordsCategoryFilter(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	inputs := []RecordInput{
		{StudentID: "1", Category: "세특", SubCategory: "a", Point: "1"},
		{StudentID: "1", Category: "행특", SubCategory: "a", Point: "1"},
		{StudentID: "2", Category: "세특", SubCategory: "a", Point: "1"},
		{StudentID: "3", Category: "자율", SubCategory: "a", Point: "1"},
		{StudentID: "3", Category: "세특", SubCategory: "b", Point: "2"},
	}
	for _, in := range inputs {
		require.NoError(t, s.UpsertRecord(ctx, in))
	}

	all, err := s.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(inputs))

	seteuk, err := s.ListRecords(ctx, "세특")
	require.NoError(t, err)
	require.Len(t, seteuk, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{seteuk[0].StudentID, seteuk[1].StudentID, seteuk[2].StudentID})
	for _, r := range seteuk {
		assert.Equal(t, "세특", r.Category)
	}

	none, err := s.ListRecords(ctx, "진로")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMalformedCollectionsReadAsEmpty(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	require.NoError(t, kv.Set(ctx, SlotRecords, []byte(`not json`)))
	require.NoError(t, kv.Set(ctx, SlotGenerated, []byte(`[{"id":"1","charCount":"many"}]`)))

	records, err := s.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, records)

	generated, err := s.ListGenerated(ctx)
	require.NoError(t, err)
	assert.Empty(t, generated)

	for _, raw := range []string{
		`[null,{"id":"r1","studentId":"1","category":"세특","subCategory":"a","point":"b"}]`,
		`[{"id":"r1","studentId":"1","category":"세특"},{}]`,
		`[{"studentId":"1","category":"세특"}]`,
		`["r1"]`,
	} {
		require.NoError(t, kv.Set(ctx, SlotRecords, []byte(raw)))
		records, err = s.ListRecords(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, records, raw)

		require.NoError(t, kv.Set(ctx, SlotGenerated, []byte(raw)))
		generated, err = s.ListGenerated(ctx)
		require.NoError(t, err)
		assert.Empty(t, generated, raw)
	}

	// the next write replaces the garbage instead of merging with it
	require.NoError(t, s.UpsertRecord(ctx, RecordInput{StudentID: "1", Category: "세특", SubCategory: "a", Point: "b"}))
	records, err = s.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGeneratedLogIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	a, err := s.AppendGenerated(ctx, GeneratedInput{StudentID: "1", Category: "세특", Content: "A", CharCount: 300, Style: "서술체"})
	require.NoError(t, err)
	b, err := s.AppendGenerated(ctx, GeneratedInput{StudentID: "2", Category: "세특", Content: "B", CharCount: 200, Style: "간결체"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())

	list, err := s.ListGenerated(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
	assert.Equal(t, 300, list[1].CharCount)
	assert.Equal(t, "간결체", list[0].Style)
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(students), 3)
	assert.Equal(t, []int{1, 2, 3}, []int{students[0].Number, students[1].Number, students[2].Number})
	s1 := students[0]

	require.NoError(t, s.UpsertRecord(ctx, RecordInput{
		StudentID: s1.ID, Category: "세특", SubCategory: "듣기말하기", Point: "경청태도",
		CheckedExamples: []int{0, 2}, Memo: "good",
	}))
	require.NoError(t, s.UpsertRecord(ctx, RecordInput{
		StudentID: s1.ID, Category: "세특", SubCategory: "듣기말하기", Point: "경청태도",
		CheckedExamples: []int{1}, Memo: "better",
	}))

	records, err := s.ListRecords(ctx, "세특")
	require.NoError(t, err)

	var forS1 []ObservationRecord
	for _, r := range records {
		if r.StudentID == s1.ID {
			forS1 = append(forS1, r)
		}
	}
	require.Len(t, forS1, 1)
	assert.Equal(t, []int{1}, forS1[0].CheckedExamples)
	assert.Equal(t, "better", forS1[0].Memo)
}

func TestWriteFailureIsReported(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{Memory: storage.NewMemory()}
	s := New(kv)

	before, err := s.ListStudents(ctx)
	require.NoError(t, err)

	kv.failSet = true

	_, err = s.AddStudent(ctx, StudentInput{Number: 9, Name: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, storage.ErrUnavailable)

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "write", se.Op)
	assert.Equal(t, SlotStudents, se.Slot)

	err = s.UpsertRecord(ctx, RecordInput{StudentID: "1", Category: "c", SubCategory: "s", Point: "p"})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = s.AppendGenerated(ctx, GeneratedInput{StudentID: "1"})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	kv.failSet = false
	after, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed write must not change the roster")
}

func TestQuotaExceededIsStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryWithQuota(600)
	s := New(kv)

	_, err := s.ListStudents(ctx)
	require.NoError(t, err)

	var lastErr error
	for i := 0; i < 50 && lastErr == nil; i++ {
		_, lastErr = s.AppendGenerated(ctx, GeneratedInput{StudentID: "1", Content: "긴 문장이 계속 쌓이는 중"})
	}
	require.Error(t, lastErr)
	assert.ErrorIs(t, lastErr, ErrStorageUnavailable)
	assert.ErrorIs(t, lastErr, storage.ErrQuotaExceeded)
}

func TestReadFailureIsReported(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{Memory: storage.NewMemory(), failGet: true}
	s := New(kv)

	_, err := s.ListStudents(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = s.ListRecords(ctx, "")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = s.ListGenerated(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestBootstrapSeedsAbsentSlotsOnly(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)
	require.NoError(t, kv.Set(ctx, SlotRecords, []byte(`[{"id":"r1","studentId":"1","category":"세특","subCategory":"a","point":"b","checkedExamples":[],"memo":"","createdAt":"2024-01-01T00:00:00Z"}]`)))

	require.NoError(t, s.Bootstrap(ctx))

	for _, slot := range []string{SlotStudents, SlotRecords, SlotGenerated} {
		_, found, err := kv.Get(ctx, slot)
		require.NoError(t, err)
		assert.True(t, found, slot)
	}

	raw, _, _ := kv.Get(ctx, SlotGenerated)
	assert.Equal(t, "[]", string(raw))

	records, err := s.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestResetRemovesSlots(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	_, err := s.AddStudent(ctx, StudentInput{Number: 30, Name: "추가"})
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx))

	_, found, err := kv.Get(ctx, SlotStudents)
	require.NoError(t, err)
	assert.False(t, found)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSeed(), students)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.UpsertRecord(ctx, RecordInput{StudentID: "1", Category: "세특", SubCategory: "a", Point: "1"}))
	require.NoError(t, s.UpsertRecord(ctx, RecordInput{StudentID: "1", Category: "행특", SubCategory: "a", Point: "1"}))
	require.NoError(t, s.UpsertRecord(ctx, RecordInput{StudentID: "ghost", Category: "세특", SubCategory: "a", Point: "1"}))
	_, err := s.AppendGenerated(ctx, GeneratedInput{StudentID: "1", Category: "세특", Content: "x"})
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultSeed()), stats.Students)
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 1, stats.Generated)
	assert.Equal(t, map[string]int{"세특": 2, "행특": 1}, stats.RecordsByCategory)
	assert.Equal(t, 1, stats.StudentsWithRecord)
}

func TestMatchStudents(t *testing.T) {
	roster := []Student{
		{ID: "a", Number: 1, Name: "김민준"},
		{ID: "b", Number: 12, Name: "이서연"},
		{ID: "c", Number: 21, Name: "민서"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"a", "b", "c"}},
		{"  ", []string{"a", "b", "c"}},
		{"민", []string{"a", "c"}},
		{"1", []string{"a", "b", "c"}},
		{"12", []string{"b"}},
		{"서연", []string{"b"}},
		{"없음", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := MatchStudents(roster, tt.query)
			ids := make([]string, 0, len(got))
			for _, st := range got {
				ids = append(ids, st.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestPlaceholderRoster(t *testing.T) {
	inputs := PlaceholderRoster(5)
	require.Len(t, inputs, 5)
	assert.Equal(t, StudentInput{ClassID: "1-1", Number: 6, Name: "새학생1"}, inputs[0])
	assert.Equal(t, StudentInput{ClassID: "1-1", Number: 10, Name: "새학생5"}, inputs[4])
}

func TestAddPlaceholdersConcurrentNumbersAreUnique(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemory())

	const uploads = 8
	var wg sync.WaitGroup
	errs := make(chan error, uploads)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, added, err := s.AddPlaceholders(ctx)
			if err == nil && added != 5 {
				err = errors.New("unexpected placeholder count")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	roster, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, roster, len(DefaultSeed())+uploads*5)

	numbers := make(map[int]bool)
	for i, st := range roster {
		assert.False(t, numbers[st.Number], "number %d reused", st.Number)
		numbers[st.Number] = true
		assert.Equal(t, i+1, st.Number)
	}
}

func TestAddPlaceholdersWriteFailure(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{Memory: storage.NewMemory()}
	s := New(kv)

	_, err := s.ListStudents(ctx)
	require.NoError(t, err)

	kv.failSet = true
	_, _, err = s.AddPlaceholders(ctx)
	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)
}
