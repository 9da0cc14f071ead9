// Package container defines the results-container surface consumed by the
// solver: grid and condition reads, the incremental solution write block,
// and the update/cancel polling used by the GUI.
package container

import (
	"errors"
	"os"
)

// GridID identifies a grid stored in a results container.
type GridID int

// Grid2DID is the id of the input structured 2-D grid. Result grids written
// by a solver are numbered after it.
const Grid2DID GridID = 1

// Mode selects how a container is opened.
type Mode int

const (
	// ModeRead opens an existing container and refuses writes.
	ModeRead Mode = iota
	// ModeModify opens an existing container for reading and writing.
	ModeModify
	// ModeCreate creates the container if it is missing and opens it for writing.
	ModeCreate
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeModify:
		return "modify"
	case ModeCreate:
		return "create"
	default:
		return "unknown"
	}
}

// SeparateOutputEnv is the environment toggle that selects split-file output:
// each solution step is written to its own file next to the container.
const SeparateOutputEnv = "IRIC_SEPARATE_OUTPUT"

// SeparateOutputFromEnv reports whether split-file output was requested.
func SeparateOutputFromEnv() bool {
	v := os.Getenv(SeparateOutputEnv)
	return v != "" && v != "0"
}

var (
	// ErrNotFound is returned when a grid, condition or solution does not exist.
	ErrNotFound = errors.New("container: not found")
	// ErrNoSolutionOpen is returned by solution writes outside a Begin/End block.
	ErrNoSolutionOpen = errors.New("container: no solution block open")
	// ErrSolutionOpen is returned by BeginSolution while a block is already open.
	ErrSolutionOpen = errors.New("container: solution block already open")
	// ErrReadOnly is returned by writes on a container opened with ModeRead.
	ErrReadOnly = errors.New("container: opened read-only")
	// ErrClosed is returned by calls on a closed container.
	ErrClosed = errors.New("container: closed")
)

// Container defines the interface for a structured-grid results container.
// Calls on one handle must be made serially.
type Container interface {
	// ClearSolutions removes all previously written solutions and result grids.
	ClearSolutions() error

	// GridSize2D returns the node counts of the input 2-D grid.
	GridSize2D() (isize, jsize int, err error)
	// GridCoords2D returns the input grid node coordinates in native
	// order: the flat index of node (i, j) is i + j*isize.
	GridCoords2D() (x, y []float64, err error)

	// ReadInteger and ReadReal read named calculation conditions.
	ReadInteger(name string) (int, error)
	ReadReal(name string) (float64, error)

	// WriteGrid3D stores a structured 3-D grid and returns its id.
	// Coordinates are in native order: i fastest, then j, then k.
	WriteGrid3D(isize, jsize, ksize int, x, y, z []float64) (GridID, error)

	// BeginSolution opens the write block for one output step. Every
	// block must be closed by EndSolution before the next one begins.
	BeginSolution() error
	// WriteSolutionTime records the time value of the open step.
	WriteSolutionTime(t float64) error
	// WriteNodeReal stores a real-valued node field on the given grid.
	WriteNodeReal(grid GridID, name string, values []float64) error
	// WriteGridCoords3D stores the coordinates of a 3-D grid for the open step.
	WriteGridCoords3D(grid GridID, x, y, z []float64) error
	// EndSolution closes the write block opened by BeginSolution.
	EndSolution() error

	// CheckUpdate services a pending reload request from the GUI.
	CheckUpdate() error
	// CancelRequested reports whether the GUI asked the run to stop.
	CancelRequested() (bool, error)

	// Close releases the container.
	Close() error
}

// Run statuses passed to RunRecorder.FinishRun.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunCanceled  = "canceled"
	RunFailed    = "failed"
)

// RunRecorder is implemented by containers that keep a record of solver runs.
type RunRecorder interface {
	StartRun(id, version string) error
	FinishRun(id, status string, steps int) error
}

// Opener opens a container at path.
type Opener func(path string, mode Mode) (Container, error)
