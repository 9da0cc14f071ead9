package solver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/debug-solver/internal/config"
	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/fsutil"
	"github.com/banshee-data/debug-solver/internal/grid"
	"github.com/banshee-data/debug-solver/internal/resultsdb"
)

func createCase(t *testing.T, timeEnd int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Case1.db")
	db, err := resultsdb.Open(path, container.ModeCreate)
	require.NoError(t, err)
	defer db.Close()

	g, err := grid.Rectangular(6, 5, 0, 0, 10, 10)
	require.NoError(t, err)
	x, y := g.Native()
	require.NoError(t, db.WriteGrid2D(g.ISize, g.JSize, x, y))
	require.NoError(t, db.WriteInteger(config.NameTimeEnd, timeEnd))
	require.NoError(t, db.WriteInteger(config.NameKSize, 3))
	require.NoError(t, db.WriteReal(config.NameAverageWL, 1.0))
	require.NoError(t, db.WriteReal(config.NameWaveHeight, 0.5))
	return path
}

func TestRun_ResultsDB(t *testing.T) {
	for _, separate := range []bool{false, true} {
		name := "single file"
		if separate {
			name = "separate output"
		}
		t.Run(name, func(t *testing.T) {
			path := createCase(t, 3)
			opener := resultsdb.Opener(resultsdb.WithSeparateOutput(separate))

			// A second run replaces the first one's solutions.
			for run := 0; run < 2; run++ {
				sum, err := Run(context.Background(), path, Options{Opener: opener})
				require.NoError(t, err)
				assert.Equal(t, 4, sum.Steps)
			}

			db, err := resultsdb.Open(path, container.ModeRead)
			require.NoError(t, err)
			defer db.Close()

			sols, err := db.Solutions()
			require.NoError(t, err)
			require.Len(t, sols, 4)
			assert.Equal(t, 3.0, sols[3].Time)
			assert.Equal(t, separate, sols[3].File != "")

			ids, err := db.ResultGrids()
			require.NoError(t, err)
			assert.Equal(t, []container.GridID{2}, ids)

			depth, err := db.ReadSolutionNodeReal(4, container.Grid2DID, FieldDepth)
			require.NoError(t, err)
			assert.Len(t, depth, 30)

			sigma, err := db.ReadSolutionNodeReal(1, ids[0], FieldSigma)
			require.NoError(t, err)
			assert.Equal(t, 0.5, sigma[30])

			runs, err := db.Runs()
			require.NoError(t, err)
			require.Len(t, runs, 2)
			for _, r := range runs {
				assert.Equal(t, container.RunCompleted, r.Status)
				assert.Equal(t, 4, r.Steps)
			}
		})
	}
}

func TestRun_ResultsDBCancelFlag(t *testing.T) {
	path := createCase(t, 50)
	require.NoError(t, resultsdb.RequestCancel(fsutil.OSFileSystem{}, path))

	sum, err := Run(context.Background(), path, Options{Opener: resultsdb.Opener()})
	require.NoError(t, err)
	assert.True(t, sum.Canceled)
	assert.Equal(t, 1, sum.Steps)

	db, err := resultsdb.Open(path, container.ModeRead)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, container.RunCanceled, runs[0].Status)
}

func TestRun_CancelRequestEndsOneRun(t *testing.T) {
	path := createCase(t, 5)
	opener := resultsdb.Opener()
	require.NoError(t, resultsdb.RequestCancel(fsutil.OSFileSystem{}, path))

	sum, err := Run(context.Background(), path, Options{Opener: opener})
	require.NoError(t, err)
	assert.True(t, sum.Canceled)
	assert.Equal(t, 1, sum.Steps)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(path), resultsdb.CancelFlag))

	sum, err = Run(context.Background(), path, Options{Opener: opener})
	require.NoError(t, err)
	assert.False(t, sum.Canceled)
	assert.Equal(t, 6, sum.Steps)
	assert.Equal(t, 5, sum.LastTime)

	db, err := resultsdb.Open(path, container.ModeRead)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	steps := map[string]int{}
	for _, r := range runs {
		steps[r.Status] = r.Steps
	}
	assert.Equal(t, map[string]int{container.RunCanceled: 1, container.RunCompleted: 6}, steps)
}
