/*
Package search is a full-text index over observation records and generated
content.

The index lives in memory and is rebuilt from a store snapshot; it is never
the source of truth.
*/
package search

// Document kinds.
const (
	KindRecord    = "record"
	KindGenerated = "generated"
)

// Hit is one search result.
type Hit struct {
	Kind      string  `json:"kind"`
	ID        string  `json:"id"`
	StudentID string  `json:"studentId"`
	Category  string  `json:"category"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
}

// Filter narrows a search. Empty fields match everything.
type Filter struct {
	Kind      string
	Category  string
	StudentID string
}
