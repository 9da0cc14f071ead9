// Package export reads the solutions of a finished run back out of a
// results container and writes them to other formats.
package export

import (
	"errors"
	"fmt"

	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/resultsdb"
)

// ErrNoSolutions is returned by Load when the container holds no complete
// solution.
var ErrNoSolutions = errors.New("export: no complete solutions")

// Reader is the read-back surface of a results container.
type Reader interface {
	GridSize2D() (int, int, error)
	GridCoords2D() ([]float64, []float64, error)
	ResultGrids() ([]container.GridID, error)
	GridSize3D(grid container.GridID) (int, int, int, error)
	Solutions() ([]resultsdb.SolutionInfo, error)
	ReadSolutionNodeReal(step int, grid container.GridID, name string) ([]float64, error)
	ReadSolutionCoords(step int, grid container.GridID) (resultsdb.Coords, error)
}

var _ Reader = (*resultsdb.DB)(nil)

// Dataset is every complete solution of a run. Node arrays are in native
// order.
type Dataset struct {
	ISize, JSize, KSize int
	X, Y                []float64

	Times []float64
	// Depth[s] is the depth field of step s, isize*jsize values.
	Depth [][]float64
	// Z[s] is the 3-D grid elevation at step s, isize*jsize*ksize values.
	Z [][]float64
	// Sigma is the relative vertical position, constant across steps.
	Sigma []float64
}

// Steps returns the number of solutions in the dataset.
func (ds *Dataset) Steps() int { return len(ds.Times) }

// Load reads the complete solutions written by the depth solver. Steps
// left incomplete by an aborted run are skipped.
func Load(r Reader, depthField, sigmaField string) (*Dataset, error) {
	isize, jsize, err := r.GridSize2D()
	if err != nil {
		return nil, err
	}
	x, y, err := r.GridCoords2D()
	if err != nil {
		return nil, err
	}
	ds := &Dataset{ISize: isize, JSize: jsize, X: x, Y: y}

	grids, err := r.ResultGrids()
	if err != nil {
		return nil, err
	}
	if len(grids) == 0 {
		return nil, fmt.Errorf("%w: no result grid", ErrNoSolutions)
	}
	grid3D := grids[0]
	if _, _, ds.KSize, err = r.GridSize3D(grid3D); err != nil {
		return nil, err
	}

	sols, err := r.Solutions()
	if err != nil {
		return nil, err
	}
	for _, s := range sols {
		if !s.Complete {
			continue
		}
		d, err := r.ReadSolutionNodeReal(s.Step, container.Grid2DID, depthField)
		if err != nil {
			return nil, err
		}
		c, err := r.ReadSolutionCoords(s.Step, grid3D)
		if err != nil {
			return nil, err
		}
		if ds.Sigma == nil {
			if ds.Sigma, err = r.ReadSolutionNodeReal(s.Step, grid3D, sigmaField); err != nil {
				return nil, err
			}
		}
		ds.Times = append(ds.Times, s.Time)
		ds.Depth = append(ds.Depth, d)
		ds.Z = append(ds.Z, c.Z)
	}
	if ds.Steps() == 0 {
		return nil, ErrNoSolutions
	}
	return ds, nil
}
