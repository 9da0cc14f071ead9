// Package solver runs the synthetic depth generator against a results
// container: it reads the 2-D grid and calculation conditions, then writes
// one solution per timestep until time_end or a cancel request.
package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/debug-solver/internal/config"
	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/depth"
	"github.com/banshee-data/debug-solver/internal/grid"
	"github.com/banshee-data/debug-solver/internal/monitoring"
	"github.com/banshee-data/debug-solver/internal/version"
)

// Result field names.
const (
	FieldDepth = "depth_2d"
	FieldSigma = "Sigma"
)

var (
	// ErrNoOpener is returned by Run when Options.Opener is nil.
	ErrNoOpener = errors.New("solver: no container opener")
	// ErrDepthOutOfBounds is returned when a generated depth leaves
	// average_WL ± |wave_height|.
	ErrDepthOutOfBounds = errors.New("solver: depth out of bounds")
)

// Options configures Run.
type Options struct {
	// Opener opens the results container. Required.
	Opener container.Opener
	// OnStep, if set, is called after each written step with the depth
	// field of that step. The matrix must not be retained.
	OnStep func(t int, depth mat.Matrix)
}

// Summary describes a finished or aborted run.
type Summary struct {
	RunID    string
	Steps    int
	LastTime int
	Canceled bool
	DepthMin float64
	DepthMax float64
	Stage    Stage
}

// runContext is the state of one run. Nothing outlives it.
type runContext struct {
	c     container.Container
	runID string
	stage Stage

	grid2D *grid.Grid2D
	cond   *config.Conditions
	lo, hi float64

	grid3D        *grid.Grid3D
	grid3DID      container.GridID
	grid3DWritten bool
	sigma         []float64
}

// Run opens the container at path in modify mode, clears old solutions and
// writes a solution for every t in 0..time_end. A cancel request, from the
// container or from ctx, ends the loop early without error. The container
// is closed on every path once opened; data written before a failure is
// left in place.
func Run(ctx context.Context, path string, opts Options) (sum *Summary, err error) {
	if opts.Opener == nil {
		return nil, ErrNoOpener
	}

	rc := &runContext{runID: uuid.NewString(), stage: StageOpening}
	sum = &Summary{RunID: rc.runID}

	monitoring.Logf("----------Start----------")
	monitoring.Logf("CGNS file name: %s", path)

	c, err := opts.Opener(path, container.ModeModify)
	if err != nil {
		sum.Stage = rc.stage
		return sum, fmt.Errorf("failed to open %s: %w", path, err)
	}
	rc.c = c

	recorder, _ := c.(container.RunRecorder)
	defer func() {
		rc.stage = StageClosing
		if recorder != nil {
			status := container.RunCompleted
			switch {
			case err != nil:
				status = container.RunFailed
			case sum.Canceled:
				status = container.RunCanceled
			}
			if ferr := recorder.FinishRun(rc.runID, status, sum.Steps); ferr != nil && err == nil {
				err = fmt.Errorf("failed to record run outcome: %w", ferr)
			}
		}
		if cerr := c.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
		rc.stage = StageDone
		sum.Stage = rc.stage
		if err == nil {
			monitoring.Logf("----------finish----------")
		}
	}()

	if err := c.ClearSolutions(); err != nil {
		return sum, fmt.Errorf("failed to clear solutions: %w", err)
	}
	if recorder != nil {
		if err := recorder.StartRun(rc.runID, version.Version); err != nil {
			recorder = nil
			return sum, fmt.Errorf("failed to record run start: %w", err)
		}
	}

	rc.stage = StageReadingConfig
	if err := rc.load(); err != nil {
		return sum, err
	}

	rc.stage = StageLooping
	return sum, rc.loop(ctx, sum, opts.OnStep)
}

// load reads the grid and conditions and prepares the 3-D grid and sigma.
func (rc *runContext) load() error {
	g, err := loadGrid(rc.c)
	if err != nil {
		return err
	}
	rc.grid2D = g
	monitoring.Logf("Grid size: isize = %d, jsize = %d", g.ISize, g.JSize)

	cond, err := config.ReadConditions(rc.c)
	if err != nil {
		return err
	}
	rc.cond = cond
	rc.lo, rc.hi = depth.Bounds(cond.AverageWL, cond.WaveHeight)

	if rc.grid3D, err = grid.Extrude(g, cond.KSize); err != nil {
		return err
	}
	if rc.sigma, err = grid.Sigma(g.ISize, g.JSize, cond.KSize); err != nil {
		return err
	}
	return nil
}

// loadGrid reads the input 2-D grid and converts it to i-major matrices.
func loadGrid(c container.Container) (*grid.Grid2D, error) {
	isize, jsize, err := c.GridSize2D()
	if err != nil {
		return nil, fmt.Errorf("failed to read grid size: %w", err)
	}
	x, y, err := c.GridCoords2D()
	if err != nil {
		return nil, fmt.Errorf("failed to read grid coordinates: %w", err)
	}
	return grid.Load(isize, jsize, x, y)
}

func (rc *runContext) loop(ctx context.Context, sum *Summary, onStep func(int, mat.Matrix)) error {
	g := rc.grid2D
	for t := 0; t <= rc.cond.TimeEnd; t++ {
		d := depth.Field(g.ISize, g.JSize, float64(t), rc.cond.AverageWL, rc.cond.WaveHeight)
		if err := rc.grid3D.SetDepth(d); err != nil {
			return fmt.Errorf("t=%d: %w", t, err)
		}
		if !rc.grid3DWritten {
			id, err := rc.c.WriteGrid3D(rc.grid3D.ISize, rc.grid3D.JSize, rc.grid3D.KSize,
				rc.grid3D.X, rc.grid3D.Y, rc.grid3D.Z)
			if err != nil {
				return fmt.Errorf("failed to write 3d grid: %w", err)
			}
			rc.grid3DID = id
			rc.grid3DWritten = true
		}

		if err := rc.writeStep(t, d); err != nil {
			return err
		}
		monitoring.Logf("t= %d", t)
		if err := sum.track(t, d, rc.lo, rc.hi); err != nil {
			return err
		}
		if onStep != nil {
			onStep(t, d)
		}

		if err := rc.c.CheckUpdate(); err != nil {
			return fmt.Errorf("t=%d: update check: %w", t, err)
		}
		canceled, err := rc.c.CancelRequested()
		if err != nil {
			return fmt.Errorf("t=%d: cancel check: %w", t, err)
		}
		if canceled || ctx.Err() != nil {
			monitoring.Logf("Cancel button was pressed. Calculation is finishing. . .")
			sum.Canceled = true
			return nil
		}
	}
	return nil
}

// writeStep writes the solution block of timestep t.
func (rc *runContext) writeStep(t int, d *mat.Dense) error {
	c := rc.c
	g3 := rc.grid3D
	if err := c.BeginSolution(); err != nil {
		return fmt.Errorf("t=%d: begin solution: %w", t, err)
	}
	if err := c.WriteSolutionTime(float64(t)); err != nil {
		return fmt.Errorf("t=%d: write time: %w", t, err)
	}
	if err := c.WriteNodeReal(container.Grid2DID, FieldDepth, grid.ToNative(d)); err != nil {
		return fmt.Errorf("t=%d: write %s: %w", t, FieldDepth, err)
	}
	if err := c.WriteGridCoords3D(rc.grid3DID, g3.X, g3.Y, g3.Z); err != nil {
		return fmt.Errorf("t=%d: write 3d coordinates: %w", t, err)
	}
	if err := c.WriteNodeReal(rc.grid3DID, FieldSigma, rc.sigma); err != nil {
		return fmt.Errorf("t=%d: write %s: %w", t, FieldSigma, err)
	}
	if err := c.EndSolution(); err != nil {
		return fmt.Errorf("t=%d: end solution: %w", t, err)
	}
	return nil
}

// track folds the depth range of step t into s. A value outside
// [boundLo, boundHi] means the field generator is broken.
func (s *Summary) track(t int, d *mat.Dense, boundLo, boundHi float64) error {
	raw := d.RawMatrix()
	lo, hi := floats.Min(raw.Data), floats.Max(raw.Data)
	const tol = 1e-9
	if lo < boundLo-tol || hi > boundHi+tol {
		return fmt.Errorf("t=%d: depth range [%g, %g] outside [%g, %g]: %w", t, lo, hi, boundLo, boundHi, ErrDepthOutOfBounds)
	}
	if s.Steps == 0 || lo < s.DepthMin {
		s.DepthMin = lo
	}
	if s.Steps == 0 || hi > s.DepthMax {
		s.DepthMax = hi
	}
	s.Steps++
	s.LastTime = t
	return nil
}
