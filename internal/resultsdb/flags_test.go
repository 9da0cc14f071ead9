package resultsdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/fsutil"
)

func TestCancelRequested(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	d := newTestCase(t, WithFileSystem(fsys))

	canceled, err := d.CancelRequested()
	require.NoError(t, err)
	assert.False(t, canceled)

	require.NoError(t, RequestCancel(fsys, d.Path()))
	canceled, err = d.CancelRequested()
	require.NoError(t, err)
	assert.True(t, canceled)
	canceled, err = d.CancelRequested()
	require.NoError(t, err)
	assert.False(t, canceled, "a request is consumed once reported")
}

func TestRemoveFlags(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	path := filepath.Join("cases", "Case1.db")
	require.NoError(t, RemoveFlags(fsys, path), "nothing to remove")

	require.NoError(t, RequestCancel(fsys, path))
	require.NoError(t, RequestUpdate(fsys, path))
	require.NoError(t, RemoveFlags(fsys, path))
	assert.False(t, fsys.Exists(filepath.Join("cases", CancelFlag)))
	assert.False(t, fsys.Exists(filepath.Join("cases", UpdateFlag)))
}

func TestCheckUpdate(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	d := newTestCase(t, WithFileSystem(fsys))
	flag := filepath.Join(filepath.Dir(d.Path()), UpdateFlag)

	require.NoError(t, d.CheckUpdate(), "no request is a no-op")

	require.NoError(t, RequestUpdate(fsys, d.Path()))
	require.NoError(t, d.BeginSolution())
	require.NoError(t, d.CheckUpdate())
	assert.True(t, fsys.Exists(flag), "request is kept while a block is open")
	require.NoError(t, d.EndSolution())

	require.NoError(t, d.CheckUpdate())
	assert.False(t, fsys.Exists(flag), "request is acknowledged")
}

func TestRuns(t *testing.T) {
	d := newTestCase(t)
	clock := d.clock.(interface{ Advance(time.Duration) })

	require.NoError(t, d.StartRun("run-1", "1.2.3"))
	clock.Advance(90 * time.Second)
	require.NoError(t, d.FinishRun("run-1", container.RunCompleted, 11))

	runs, err := d.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, "run-1", r.ID)
	assert.Equal(t, "1.2.3", r.SolverVersion)
	assert.Equal(t, container.RunCompleted, r.Status)
	assert.Equal(t, 11, r.Steps)
	assert.WithinDuration(t, testEpoch, r.StartedAt, time.Millisecond)
	require.NotNil(t, r.FinishedAt)
	assert.WithinDuration(t, testEpoch.Add(90*time.Second), *r.FinishedAt, time.Millisecond)

	assert.Error(t, d.FinishRun("missing", container.RunFailed, 0))
	assert.Error(t, d.StartRun("run-1", "1.2.3"), "duplicate run id")
}
