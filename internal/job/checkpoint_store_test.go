package job

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/labeltagctl/internal/domain"
)

func newTestCheckpoint(t *testing.T, id string) *domain.JobCheckpoint {
	t.Helper()
	cp, err := domain.NewJobCheckpoint(id, domain.InputShipment, "8000141715", "out/"+id, "ZEBRA-1", "10.0.0.5:9100", testTasks())
	require.NoError(t, err)
	return cp
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewCheckpointStore(t.TempDir(), nil)
	cp := newTestCheckpoint(t, "job-rt")
	cp.MarkTaskComplete(0)
	require.NoError(t, store.Save(cp))

	loaded, err := store.Load("job-rt")
	require.NoError(t, err)
	assert.Equal(t, cp.ID, loaded.ID)
	assert.Equal(t, cp.InputMode, loaded.InputMode)
	assert.Equal(t, cp.SourceID, loaded.SourceID)
	assert.Equal(t, cp.TargetPrinterID, loaded.TargetPrinterID)
	assert.Equal(t, cp.TargetEndpoint, loaded.TargetEndpoint)
	assert.Equal(t, 1, loaded.NextTaskIndex)
	assert.False(t, loaded.Completed)
	require.Len(t, loaded.Tasks, 3)
	assert.Equal(t, cp.Tasks[0].Payload, loaded.Tasks[0].Payload)
	assert.True(t, cp.UpdatedAt.Equal(loaded.UpdatedAt))
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store := NewCheckpointStore(dir, nil)
	require.NoError(t, store.Save(newTestCheckpoint(t, "job-tmp")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "job-tmp.json", entries[0].Name())
}

func TestLoadUnknownIDFails(t *testing.T) {
	store := NewCheckpointStore(t.TempDir(), nil)
	_, err := store.Load("nope")
	require.Error(t, err)
}

func TestListIncompleteSkipsCompletedAndSortsByUpdatedAtDescending(t *testing.T) {
	store := NewCheckpointStore(t.TempDir(), nil)

	done := newTestCheckpoint(t, "job-done")
	for i := range done.Tasks {
		done.MarkTaskComplete(i)
	}
	require.True(t, done.Completed)
	require.NoError(t, store.Save(done))

	older := newTestCheckpoint(t, "job-older")
	older.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.Save(older))

	newer := newTestCheckpoint(t, "job-newer")
	newer.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.Save(newer))

	incomplete, err := store.ListIncomplete()
	require.NoError(t, err)
	require.Len(t, incomplete, 2)
	assert.Equal(t, "job-newer", incomplete[0].ID)
	assert.Equal(t, "job-older", incomplete[1].ID)
}

func TestListIncompleteSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewCheckpointStore(dir, nil)
	require.NoError(t, store.Save(newTestCheckpoint(t, "job-good")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{not json"), 0o644))

	incomplete, err := store.ListIncomplete()
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	assert.Equal(t, "job-good", incomplete[0].ID)
}

func TestListIncompleteMissingDirectoryIsEmpty(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	incomplete, err := store.ListIncomplete()
	require.NoError(t, err)
	assert.Empty(t, incomplete)
}
