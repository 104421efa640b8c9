package export

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/khanglvm/recordbook/internal/storage"
	"github.com/khanglvm/recordbook/internal/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	st := store.New(storage.NewMemory(), store.WithIDs(store.UUIDs{}))

	require.NoError(t, st.UpsertRecord(ctx, store.RecordInput{StudentID: "1", Category: "세특", SubCategory: "듣기말하기", Point: "경청태도", CheckedExamples: []int{0, 2}, Memo: "good"}))
	require.NoError(t, st.UpsertRecord(ctx, store.RecordInput{StudentID: "ghost", Category: "행특", SubCategory: "인성", Point: "배려"}))
	_, err := st.AppendGenerated(ctx, store.GeneratedInput{StudentID: "2", Category: "세특", Content: "본문", CharCount: 300, Style: "서술체"})
	require.NoError(t, err)
	return st
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(context.Background(), seededStore(t), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetStudents, SheetRecords, SheetGenerated}, f.GetSheetList())

	students, err := f.GetRows(SheetStudents)
	require.NoError(t, err)
	require.Len(t, students, len(store.DefaultSeed())+1)
	assert.Equal(t, []string{"id", "classId", "number", "name"}, students[0])
	assert.Equal(t, []string{"1", "1-1", "1", "김민준"}, students[1])

	records, err := f.GetRows(SheetRecords)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "김민준", records[1][2])
	assert.Equal(t, "0,2", records[1][6])
	assert.Equal(t, "good", records[1][7])
	// unknown student ids get a blank name
	assert.Equal(t, "ghost", records[2][1])
	assert.Equal(t, "", records[2][2])

	generated, err := f.GetRows(SheetGenerated)
	require.NoError(t, err)
	require.Len(t, generated, 2)
	assert.Equal(t, "이서연", generated[1][2])
	assert.Equal(t, "300", generated[1][5])
	assert.Equal(t, "본문", generated[1][6])
}

func TestWriteJSONSnapshot(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteJSON(context.Background(), seededStore(t), &buf, false)
	require.NoError(t, err)
	assert.Equal(t, len(store.DefaultSeed())+3, n)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	assert.Len(t, snap.Students, len(store.DefaultSeed()))
	assert.Len(t, snap.Records, 2)
	assert.Len(t, snap.Generated, 1)
	assert.Equal(t, []int{0, 2}, snap.Records[0].CheckedExamples)
}

func TestWriteJSONLines(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteJSON(context.Background(), seededStore(t), &buf, true)
	require.NoError(t, err)

	kinds := map[string]int{}
	scanner := bufio.NewScanner(&buf)
	lines := 0
	for scanner.Scan() {
		var line struct {
			Kind string          `json:"kind"`
			Item json.RawMessage `json:"item"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		assert.NotEmpty(t, line.Item)
		kinds[line.Kind]++
		lines++
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, n, lines)
	assert.Equal(t, map[string]int{"student": len(store.DefaultSeed()), "record": 2, "generated": 1}, kinds)
}

func TestExportStorageFailure(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Close())
	st := store.New(kv)

	var buf bytes.Buffer
	assert.ErrorIs(t, WriteXLSX(context.Background(), st, &buf), store.ErrStorageUnavailable)
	_, err := WriteJSON(context.Background(), st, &buf, true)
	assert.ErrorIs(t, err, store.ErrStorageUnavailable)
	assert.Zero(t, buf.Len())
}

func TestFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	lock, err := AcquireLock(path)
	require.NoError(t, err)
	assert.FileExists(t, path+".lock")

	_, err = AcquireLock(path)
	assert.ErrorIs(t, err, ErrLocked, "second lock on the same path should fail")

	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())
	assert.FileExists(t, path+".lock", "lock file stays for the next exporter")

	again, err := AcquireLock(path)
	require.NoError(t, err)

	// a holder of the old file and a newcomer contend for the same lock
	_, err = AcquireLock(path)
	assert.ErrorIs(t, err, ErrLocked)
	require.NoError(t, again.Release())
}

func TestWriteFileReplacesOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	err := WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"out.json", "out.json.lock"}, names, "no temp files left behind")
}

func TestWriteFileFailureKeepsPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(path, []byte("previous export"), 0644))

	boom := errors.New("store went away")
	err := WriteFile(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous export", string(data))

	matches, err := filepath.Glob(filepath.Join(dir, ".out.json.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWriteFileHonorsLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	lock, err := AcquireLock(path)
	require.NoError(t, err)
	defer lock.Release()

	called := false
	err = WriteFile(path, func(io.Writer) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLocked)
	assert.False(t, called)
	assert.NoFileExists(t, path)
}
