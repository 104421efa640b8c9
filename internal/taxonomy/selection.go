package taxonomy

import "sort"

// Selection is the set of ticked example indices while a record is being edited.
// Records persist it as the sorted list from Indices.
type Selection map[int]struct{}

// NewSelection builds a selection; repeated indices collapse.
func NewSelection(indices ...int) Selection {
	s := make(Selection, len(indices))
	for _, i := range indices {
		s.Add(i)
	}
	return s
}

func (s Selection) Add(i int) {
	s[i] = struct{}{}
}

// Toggle ticks i if unticked, and unticks it otherwise.
func (s Selection) Toggle(i int) {
	if s.Has(i) {
		delete(s, i)
		return
	}
	s.Add(i)
}

func (s Selection) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Indices returns the ticked indices in ascending order.
func (s Selection) Indices() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
