package solver

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/debug-solver/internal/config"
	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/monitoring"
)

func newCase(isize, jsize, timeEnd, ksize int, avg, h float64) *container.MockContainer {
	m := container.NewMockContainer(isize, jsize)
	m.Integers[config.NameTimeEnd] = timeEnd
	m.Integers[config.NameKSize] = ksize
	m.Reals[config.NameAverageWL] = avg
	m.Reals[config.NameWaveHeight] = h
	return m
}

func TestRun_CallSequence(t *testing.T) {
	m := newCase(2, 2, 0, 2, 1.0, 0.5)

	_, err := Run(context.Background(), "case.db", Options{Opener: container.MockOpener(m)})
	require.NoError(t, err)

	want := []string{
		"Open(modify)",
		"ClearSolutions",
		"GridSize2D",
		"GridCoords2D",
		"ReadInteger(time_end)",
		"ReadInteger(ksize)",
		"ReadReal(average_WL)",
		"ReadReal(wave_height)",
		"WriteGrid3D",
		"BeginSolution",
		"WriteSolutionTime(0)",
		"WriteNodeReal(1,depth_2d)",
		"WriteGridCoords3D(2)",
		"WriteNodeReal(2,Sigma)",
		"EndSolution",
		"CheckUpdate",
		"CancelRequested",
		"Close",
	}
	if diff := cmp.Diff(want, m.Calls); diff != "" {
		t.Errorf("call log mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Scenario(t *testing.T) {
	const isize, jsize, ksize = 6, 5, 3
	m := newCase(isize, jsize, 1, ksize, 1.0, 0.5)

	var fields []*mat.Dense
	sum, err := Run(context.Background(), "case.db", Options{
		Opener: container.MockOpener(m),
		OnStep: func(_ int, d mat.Matrix) { fields = append(fields, mat.DenseCopyOf(d)) },
	})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Steps)
	assert.Equal(t, 1, sum.LastTime)
	assert.False(t, sum.Canceled)
	assert.Equal(t, StageDone, sum.Stage)
	assert.NotEmpty(t, sum.RunID)
	assert.True(t, m.Closed)
	assert.True(t, m.Cleared)

	assert.Equal(t, 1, m.CountCalls("WriteGrid3D"))
	assert.Equal(t, 2, m.CountCalls("BeginSolution"))
	assert.Equal(t, 2, m.CountCalls("EndSolution"))
	assert.Equal(t, 2, m.CountCalls("WriteNodeReal(1,depth_2d)"))
	assert.Equal(t, 2, m.UpdateChecks)
	assert.Equal(t, 2, m.CancelChecks)

	require.Len(t, m.Grids, 1)
	g3 := m.Grids[0]
	assert.Equal(t, [3]int{isize, jsize, ksize}, [3]int{g3.ISize, g3.JSize, g3.KSize})

	require.Len(t, m.Solutions, 2)
	layer := isize * jsize
	for step, sol := range m.Solutions {
		assert.True(t, sol.Ended)
		assert.Equal(t, float64(step), sol.Time)

		depth := sol.NodeReal[container.NodeRealKey(container.Grid2DID, FieldDepth)]
		require.Len(t, depth, layer)
		for _, v := range depth {
			assert.GreaterOrEqual(t, v, 0.5)
			assert.LessOrEqual(t, v, 1.5)
		}

		sigma := sol.NodeReal[container.NodeRealKey(g3.ID, FieldSigma)]
		coords := sol.Coords[g3.ID]
		require.Len(t, sigma, layer*ksize)
		for j := 0; j < jsize; j++ {
			for i := 0; i < isize; i++ {
				n := i + j*isize
				assert.Equal(t, fields[step].At(i, j), depth[n])
				for k := 0; k < ksize; k++ {
					idx := n + k*layer
					assert.Equal(t, float64(k)/float64(ksize-1), sigma[idx])
					assert.Equal(t, float64(i), coords[0][idx])
					assert.Equal(t, float64(j), coords[1][idx])
				}
				assert.Equal(t, 0.0, coords[2][n], "bottom layer")
				assert.InDelta(t, depth[n], coords[2][n+(ksize-1)*layer], 1e-12, "top layer")
			}
		}
	}
	assert.GreaterOrEqual(t, sum.DepthMin, 0.5)
	assert.LessOrEqual(t, sum.DepthMax, 1.5)
}

func TestRun_DepthAtTimeZero(t *testing.T) {
	const isize, jsize = 4, 3
	m := newCase(isize, jsize, 0, 2, 2.0, 0.75)

	_, err := Run(context.Background(), "case.db", Options{Opener: container.MockOpener(m)})
	require.NoError(t, err)

	depth := m.Solutions[0].NodeReal[container.NodeRealKey(container.Grid2DID, FieldDepth)]
	for j := 0; j < jsize; j++ {
		for i := 0; i < isize; i++ {
			want := 2.0 + 0.75*math.Sin(2*math.Pi*float64(i)/isize)*math.Cos(2*math.Pi*float64(j)/jsize)
			assert.InDelta(t, want, depth[i+j*isize], 1e-12)
		}
	}
}

func TestRun_CancelAfterFirstStep(t *testing.T) {
	m := newCase(6, 5, 10, 3, 1.0, 0.5)
	m.CancelAfter = 1

	sum, err := Run(context.Background(), "case.db", Options{Opener: container.MockOpener(m)})
	require.NoError(t, err)

	assert.True(t, sum.Canceled)
	assert.Equal(t, 1, sum.Steps)
	assert.Equal(t, 0, sum.LastTime)
	assert.Len(t, m.Solutions, 1)
	assert.Zero(t, m.CountCalls("WriteSolutionTime(1)"))
	assert.True(t, m.Closed)
}

func TestRun_ContextCanceled(t *testing.T) {
	m := newCase(3, 3, 10, 2, 1.0, 0.5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := Run(ctx, "case.db", Options{Opener: container.MockOpener(m)})
	require.NoError(t, err)

	assert.True(t, sum.Canceled)
	assert.Equal(t, 1, sum.Steps)
	assert.True(t, m.Closed)
}

func TestRun_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		setup   func(m *container.MockContainer)
		wantErr error
		steps   int
	}{
		{
			name:    "clear fails",
			setup:   func(m *container.MockContainer) { m.Errors["ClearSolutions"] = boom },
			wantErr: boom,
		},
		{
			name:    "missing condition",
			setup:   func(m *container.MockContainer) { delete(m.Reals, config.NameWaveHeight) },
			wantErr: container.ErrNotFound,
		},
		{
			name:    "single layer",
			setup:   func(m *container.MockContainer) { m.Integers[config.NameKSize] = 1 },
			wantErr: config.ErrInvalid,
		},
		{
			name:    "grid coordinates fail",
			setup:   func(m *container.MockContainer) { m.Errors["GridCoords2D"] = boom },
			wantErr: boom,
		},
		{
			name:    "end solution fails",
			setup:   func(m *container.MockContainer) { m.Errors["EndSolution"] = boom },
			wantErr: boom,
		},
		{
			name:    "cancel check fails",
			setup:   func(m *container.MockContainer) { m.Errors["CancelRequested"] = boom },
			wantErr: boom,
			steps:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newCase(4, 3, 2, 3, 1.0, 0.5)
			tt.setup(m)

			sum, err := Run(context.Background(), "case.db", Options{Opener: container.MockOpener(m)})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, m.Closed, "container must be closed on error")
			assert.Equal(t, tt.steps, sum.Steps)
			assert.Equal(t, StageDone, sum.Stage)
		})
	}
}

func TestRun_OpenFails(t *testing.T) {
	m := newCase(2, 2, 0, 2, 1, 0)
	m.Errors["Open"] = container.ErrNotFound

	sum, err := Run(context.Background(), "missing.db", Options{Opener: container.MockOpener(m)})
	assert.ErrorIs(t, err, container.ErrNotFound)
	assert.Equal(t, StageOpening, sum.Stage)
	assert.False(t, m.Closed)
}

func TestRun_NoOpener(t *testing.T) {
	_, err := Run(context.Background(), "case.db", Options{})
	assert.ErrorIs(t, err, ErrNoOpener)
}

func TestRun_ConsoleMessages(t *testing.T) {
	lines, restore := monitoring.Capture()
	defer restore()

	m := newCase(6, 5, 1, 3, 1.0, 0.5)
	m.CancelAfter = 2
	_, err := Run(context.Background(), "case.db", Options{Opener: container.MockOpener(m)})
	require.NoError(t, err)

	want := []string{
		"----------Start----------",
		"CGNS file name: case.db",
		"Grid size: isize = 6, jsize = 5",
		"t= 0",
		"t= 1",
		"Cancel button was pressed. Calculation is finishing. . .",
		"----------finish----------",
	}
	if diff := cmp.Diff(want, *lines); diff != "" {
		t.Errorf("console output mismatch (-want +got):\n%s", diff)
	}
}

func TestStage_String(t *testing.T) {
	tests := map[Stage]string{
		StageOpening:       "opening",
		StageReadingConfig: "reading-config",
		StageLooping:       "looping",
		StageClosing:       "closing",
		StageDone:          "done",
		Stage(42):          "unknown",
	}
	for s, want := range tests {
		assert.Equal(t, want, s.String())
	}
}

func TestRun_FailedStepIsNotReported(t *testing.T) {
	lines, restore := monitoring.Capture()
	defer restore()

	m := newCase(4, 3, 2, 3, 1.0, 0.5)
	m.Errors["WriteNodeReal"] = errors.New("disk full")
	sum, err := Run(context.Background(), "case.db", Options{Opener: container.MockOpener(m)})
	require.Error(t, err)
	assert.Equal(t, 0, sum.Steps)
	assert.NotContains(t, *lines, "t= 0")
}

func TestSummary_TrackBounds(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{name: "inside", values: []float64{0.5, 1.5}},
		{name: "on the bounds", values: []float64{0.5, 1.5 + 1e-12}},
		{name: "below", values: []float64{0.4, 1.0}, wantErr: true},
		{name: "above", values: []float64{1.0, 1.6}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Summary
			err := s.track(3, mat.NewDense(1, 2, tt.values), 0.5, 1.5)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDepthOutOfBounds)
				assert.Equal(t, 0, s.Steps)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, s.Steps)
			assert.Equal(t, 3, s.LastTime)
		})
	}
}
