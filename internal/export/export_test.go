package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/debug-solver/internal/config"
	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/grid"
	"github.com/banshee-data/debug-solver/internal/monitoring"
	"github.com/banshee-data/debug-solver/internal/resultsdb"
	"github.com/banshee-data/debug-solver/internal/solver"
)

// solvedCase runs the solver on a fresh 4x3x3 case with time_end 2 and
// returns the container opened read-only.
func solvedCase(t *testing.T) *resultsdb.DB {
	t.Helper()
	monitoring.SetLogger(nil)
	path := filepath.Join(t.TempDir(), "Case1.db")

	db, err := resultsdb.Open(path, container.ModeCreate)
	require.NoError(t, err)
	g, err := grid.Rectangular(4, 3, 0, 0, 1, 1)
	require.NoError(t, err)
	x, y := g.Native()
	require.NoError(t, db.WriteGrid2D(4, 3, x, y))
	require.NoError(t, db.WriteInteger(config.NameTimeEnd, 2))
	require.NoError(t, db.WriteInteger(config.NameKSize, 3))
	require.NoError(t, db.WriteReal(config.NameAverageWL, 1.0))
	require.NoError(t, db.WriteReal(config.NameWaveHeight, 0.5))
	require.NoError(t, db.Close())

	_, err = solver.Run(context.Background(), path, solver.Options{Opener: resultsdb.Opener()})
	require.NoError(t, err)

	ro, err := resultsdb.Open(path, container.ModeRead)
	require.NoError(t, err)
	t.Cleanup(func() { ro.Close() })
	return ro
}

func TestLoad(t *testing.T) {
	ds, err := Load(solvedCase(t), solver.FieldDepth, solver.FieldSigma)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Steps())
	assert.Equal(t, []float64{0, 1, 2}, ds.Times)
	assert.Equal(t, [3]int{4, 3, 3}, [3]int{ds.ISize, ds.JSize, ds.KSize})
	assert.Len(t, ds.X, 12)
	require.Len(t, ds.Depth, 3)
	require.Len(t, ds.Z, 3)
	assert.Len(t, ds.Z[2], 36)
	assert.Len(t, ds.Sigma, 36)
	for s := range ds.Depth {
		for n, d := range ds.Depth[s] {
			assert.InDelta(t, d, ds.Z[s][n+2*12], 1e-12, "top layer follows depth")
		}
	}
}

func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := resultsdb.Open(path, container.ModeCreate)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.WriteGrid2D(1, 1, []float64{0}, []float64{0}))

	_, err = Load(db, solver.FieldDepth, solver.FieldSigma)
	assert.ErrorIs(t, err, ErrNoSolutions)
}

func TestWriteNetCDF(t *testing.T) {
	ds, err := Load(solvedCase(t), solver.FieldDepth, solver.FieldSigma)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "depth.nc")
	out, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteNetCDF(out, ds))
	require.NoError(t, out.Close())

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()
	f, err := cdf.Open(in)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 3, 3, 4}, f.Header.Lengths(VarZ))
	assert.Equal(t, []int{3, 3, 4}, f.Header.Lengths(VarDepth))
	assert.Equal(t, []int32{3}, f.Header.GetAttribute("", "ksize"))

	depth := make([]float64, 3*12)
	_, err = f.Reader(VarDepth, nil, nil).Read(depth)
	require.NoError(t, err)
	assert.Equal(t, flatten(ds.Depth), depth)

	times := make([]float64, 3)
	_, err = f.Reader(VarTime, nil, nil).Read(times)
	require.NoError(t, err)
	assert.Equal(t, ds.Times, times)
}
