package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultSeed returns the roster installed into empty storage.
func DefaultSeed() []Student {
	return []Student{
		{ID: "1", ClassID: "1-1", Number: 1, Name: "김민준"},
		{ID: "2", ClassID: "1-1", Number: 2, Name: "이서연"},
		{ID: "3", ClassID: "1-1", Number: 3, Name: "박지호"},
		{ID: "4", ClassID: "1-1", Number: 4, Name: "최수아"},
		{ID: "5", ClassID: "1-1", Number: 5, Name: "정도윤"},
	}
}

// SeedFrom turns configured roster entries into a seed with stable ids
// ("seed-<position>") so reseeding never changes identities.
func SeedFrom(inputs []StudentInput) []Student {
	seed := make([]Student, len(inputs))
	for i, in := range inputs {
		seed[i] = Student{
			ID:      fmt.Sprintf("seed-%d", i+1),
			ClassID: in.ClassID,
			Number:  in.Number,
			Name:    in.Name,
		}
	}
	return seed
}

// PlaceholderRoster returns the students a simulated roster upload adds:
// five students of class 1-1 numbered after the current roster size.
func PlaceholderRoster(current int) []StudentInput {
	inputs := make([]StudentInput, 5)
	for i := range inputs {
		inputs[i] = StudentInput{
			ClassID: "1-1",
			Number:  current + i + 1,
			Name:    fmt.Sprintf("새학생%d", i+1),
		}
	}
	return inputs
}

// ListStudents returns the roster sorted by number. Absent or malformed roster
// data is replaced by the seed roster first; an existing empty roster is kept.
func (s *Store) ListStudents(ctx context.Context) ([]Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadStudents(ctx)
}

// AddStudent assigns an id to in, inserts it and persists the re-sorted roster.
func (s *Store) AddStudent(ctx context.Context, in StudentInput) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.loadStudents(ctx)
	if err != nil {
		return Student{}, err
	}

	id, err := s.freshID(studentIDs(students))
	if err != nil {
		return Student{}, err
	}

	created := Student{ID: id, ClassID: in.ClassID, Number: in.Number, Name: in.Name}
	students = append(students, created)
	sortStudents(students)

	if err := s.save(ctx, SlotStudents, students); err != nil {
		return Student{}, err
	}
	return created, nil
}

// AddStudentsBulk adds every input in one write and returns the full updated
// roster. All new ids are distinct from each other and from existing ids.
func (s *Store) AddStudentsBulk(ctx context.Context, inputs []StudentInput) ([]Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.loadStudents(ctx)
	if err != nil {
		return nil, err
	}
	return s.appendStudents(ctx, students, inputs)
}

// AddPlaceholders performs a simulated roster upload: the PlaceholderRoster
// for the current roster size is added in the same critical section that
// reads that size, so concurrent uploads never reuse numbers. It returns the
// full updated roster and the number of students added.
func (s *Store) AddPlaceholders(ctx context.Context) ([]Student, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.loadStudents(ctx)
	if err != nil {
		return nil, 0, err
	}
	inputs := PlaceholderRoster(len(students))
	students, err = s.appendStudents(ctx, students, inputs)
	if err != nil {
		return nil, 0, err
	}
	return students, len(inputs), nil
}

// appendStudents assigns ids to inputs and persists the merged roster.
// The caller holds s.mu.
func (s *Store) appendStudents(ctx context.Context, students []Student, inputs []StudentInput) ([]Student, error) {
	if len(inputs) == 0 {
		return students, nil
	}

	ids, err := s.freshBatch(len(inputs), studentIDs(students))
	if err != nil {
		return nil, err
	}

	for i, in := range inputs {
		students = append(students, Student{ID: ids[i], ClassID: in.ClassID, Number: in.Number, Name: in.Name})
	}
	sortStudents(students)

	if err := s.save(ctx, SlotStudents, students); err != nil {
		return nil, err
	}
	return students, nil
}

// MatchStudents filters a roster by name substring or number substring.
// An empty query matches everyone.
func MatchStudents(students []Student, query string) []Student {
	query = strings.TrimSpace(query)
	if query == "" {
		return students
	}

	matched := make([]Student, 0, len(students))
	for _, st := range students {
		if strings.Contains(st.Name, query) || strings.Contains(strconv.Itoa(st.Number), query) {
			matched = append(matched, st)
		}
	}
	return matched
}

// loadStudents reads the roster, seeding it when absent or malformed.
func (s *Store) loadStudents(ctx context.Context) ([]Student, error) {
	var students []Student
	found, malformed, err := s.load(ctx, SlotStudents, &students)
	if err != nil {
		return nil, err
	}

	if !found || malformed {
		seed := append([]Student(nil), s.seed...)
		if err := s.save(ctx, SlotStudents, seed); err != nil {
			return nil, err
		}
		s.log.Info("seeded roster", "students", len(seed), "reseed", malformed)
		return seed, nil
	}

	if students == nil {
		students = []Student{}
	}
	sortStudents(students)
	return students, nil
}

// sortStudents orders by number; equal numbers keep their relative order.
func sortStudents(students []Student) {
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].Number < students[j].Number
	})
}

func studentIDs(students []Student) map[string]bool {
	ids := make(map[string]bool, len(students))
	for _, st := range students {
		ids[st.ID] = true
	}
	return ids
}
