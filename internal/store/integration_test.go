package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanglvm/recordbook/internal/storage"
)

// TestStoreSurvivesReopen runs the store on real file backends and reopens them.
func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	for _, backend := range []string{storage.BackendSQLite, storage.BackendBolt} {
		t.Run(backend, func(t *testing.T) {
			opts := storage.Options{Backend: backend, Path: filepath.Join(tmpDir, "records."+backend)}

			kv, err := storage.Open(ctx, opts)
			require.NoError(t, err)

			s := New(kv)
			require.NoError(t, s.Bootstrap(ctx))
			added, err := s.AddStudent(ctx, StudentInput{ClassID: "1-2", Number: 6, Name: "오세린"})
			require.NoError(t, err)
			require.NoError(t, s.UpsertRecord(ctx, RecordInput{StudentID: added.ID, Category: "행특", SubCategory: "인성", Point: "배려", CheckedExamples: []int{1}, Memo: "친구를 도움"}))
			_, err = s.AppendGenerated(ctx, GeneratedInput{StudentID: added.ID, Category: "행특", Content: "본문", CharCount: 200, Style: "간결체"})
			require.NoError(t, err)
			require.NoError(t, kv.Close())

			kv, err = storage.Open(ctx, opts)
			require.NoError(t, err)
			defer kv.Close()

			s = New(kv)
			students, err := s.ListStudents(ctx)
			require.NoError(t, err)
			assert.Len(t, students, len(DefaultSeed())+1)
			assert.Equal(t, added, students[len(students)-1])

			records, err := s.ListRecords(ctx, "행특")
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "친구를 도움", records[0].Memo)

			generated, err := s.ListGenerated(ctx)
			require.NoError(t, err)
			require.Len(t, generated, 1)
			assert.Equal(t, "본문", generated[0].Content)
		})
	}
}
