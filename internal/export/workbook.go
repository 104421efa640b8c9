/*
Package export writes snapshots of the record store as spreadsheets or JSON.
*/
package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/khanglvm/recordbook/internal/store"
)

// Sheet names in an exported workbook.
const (
	SheetStudents  = "students"
	SheetRecords   = "records"
	SheetGenerated = "generated"
)

var (
	studentHeader   = []interface{}{"id", "classId", "number", "name"}
	recordHeader    = []interface{}{"id", "studentId", "studentName", "category", "subCategory", "point", "checkedExamples", "memo", "createdAt"}
	generatedHeader = []interface{}{"id", "studentId", "studentName", "category", "style", "charCount", "content", "createdAt"}
)

// Snapshot is the full content of the store at one moment.
type Snapshot struct {
	Students  []store.Student           `json:"students"`
	Records   []store.ObservationRecord `json:"records"`
	Generated []store.GeneratedContent  `json:"generated"`
}

// Take reads all three collections.
func Take(ctx context.Context, st *store.Store) (Snapshot, error) {
	students, err := st.ListStudents(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	records, err := st.ListRecords(ctx, "")
	if err != nil {
		return Snapshot{}, err
	}
	generated, err := st.ListGenerated(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Students: students, Records: records, Generated: generated}, nil
}

// Workbook builds a spreadsheet with one sheet per collection. Records and
// generated rows carry the student's name, blank when the id is not on the roster.
func Workbook(ctx context.Context, st *store.Store) (*excelize.File, error) {
	snap, err := Take(ctx, st)
	if err != nil {
		return nil, err
	}
	return snap.Workbook()
}

// Workbook renders the snapshot as a spreadsheet.
func (snap Snapshot) Workbook() (*excelize.File, error) {
	names := make(map[string]string, len(snap.Students))
	for _, s := range snap.Students {
		names[s.ID] = s.Name
	}

	f := excelize.NewFile()
	// NewFile starts with "Sheet1"; rename it rather than leave an empty sheet
	if err := f.SetSheetName(f.GetSheetName(0), SheetStudents); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	studentRows := make([][]interface{}, 0, len(snap.Students))
	for _, s := range snap.Students {
		studentRows = append(studentRows, []interface{}{s.ID, s.ClassID, s.Number, s.Name})
	}

	recordRows := make([][]interface{}, 0, len(snap.Records))
	for _, r := range snap.Records {
		recordRows = append(recordRows, []interface{}{
			r.ID, r.StudentID, names[r.StudentID], r.Category, r.SubCategory, r.Point,
			joinInts(r.CheckedExamples), r.Memo, r.CreatedAt.Format(time.RFC3339),
		})
	}

	generatedRows := make([][]interface{}, 0, len(snap.Generated))
	for _, g := range snap.Generated {
		generatedRows = append(generatedRows, []interface{}{
			g.ID, g.StudentID, names[g.StudentID], g.Category, g.Style, g.CharCount,
			g.Content, g.CreatedAt.Format(time.RFC3339),
		})
	}

	sheets := []struct {
		name   string
		header []interface{}
		rows   [][]interface{}
	}{
		{SheetStudents, studentHeader, studentRows},
		{SheetRecords, recordHeader, recordRows},
		{SheetGenerated, generatedHeader, generatedRows},
	}

	for i, sh := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(sh.name); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to create sheet %s: %w", sh.name, err)
			}
		}
		if err := writeRows(f, sh.name, sh.header, sh.rows); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteXLSX writes the workbook for st to w.
func WriteXLSX(ctx context.Context, st *store.Store, w io.Writer) error {
	f, err := Workbook(ctx, st)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ",")
}
