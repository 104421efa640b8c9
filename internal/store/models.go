package store

import "time"

// Student is one roster entry.
type Student struct {
	ID      string `json:"id"`
	ClassID string `json:"classId"`
	Number  int    `json:"number"`
	Name    string `json:"name"`
}

// StudentInput is a student before an id is assigned.
type StudentInput struct {
	ClassID string `json:"classId"`
	Number  int    `json:"number"`
	Name    string `json:"name"`
}

// ObservationRecord is a categorized observation of one student.
// At most one record exists per natural key.
type ObservationRecord struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"studentId"`
	Category        string    `json:"category"`
	SubCategory     string    `json:"subCategory"`
	Point           string    `json:"point"`
	CheckedExamples []int     `json:"checkedExamples"`
	Memo            string    `json:"memo"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Key returns the record's natural key.
func (r ObservationRecord) Key() NaturalKey {
	return NaturalKey{
		StudentID:   r.StudentID,
		Category:    r.Category,
		SubCategory: r.SubCategory,
		Point:       r.Point,
	}
}

// RecordInput is the caller-supplied part of an observation record.
type RecordInput struct {
	StudentID       string `json:"studentId"`
	Category        string `json:"category"`
	SubCategory     string `json:"subCategory"`
	Point           string `json:"point"`
	CheckedExamples []int  `json:"checkedExamples"`
	Memo            string `json:"memo"`
}

// Key returns the natural key the input will be saved under.
func (in RecordInput) Key() NaturalKey {
	return NaturalKey{
		StudentID:   in.StudentID,
		Category:    in.Category,
		SubCategory: in.SubCategory,
		Point:       in.Point,
	}
}

// NaturalKey identifies a record's logical slot independent of its id.
type NaturalKey struct {
	StudentID   string
	Category    string
	SubCategory string
	Point       string
}

// GeneratedContent is one entry of the generation log.
type GeneratedContent struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	CharCount int       `json:"charCount"`
	Style     string    `json:"style"`
	CreatedAt time.Time `json:"createdAt"`
}

// GeneratedInput is a generation result before it is logged.
type GeneratedInput struct {
	StudentID string `json:"studentId"`
	Category  string `json:"category"`
	Content   string `json:"content"`
	CharCount int    `json:"charCount"`
	Style     string `json:"style"`
}

// Stats summarizes the three collections for a dashboard.
type Stats struct {
	Students           int            `json:"students"`
	Records            int            `json:"records"`
	Generated          int            `json:"generated"`
	RecordsByCategory  map[string]int `json:"recordsByCategory"`
	StudentsWithRecord int            `json:"studentsWithRecord"`
}
