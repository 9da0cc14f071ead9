// Package grid holds the structured grids handled by the solver: the input
// 2-D grid read from a results container and the 3-D grid extruded from it.
//
// Containers store node arrays in native order, with i varying fastest:
// the flat index of node (i, j) is i + j*isize, and of node (i, j, k) is
// i + isize*(j + jsize*k). In memory, 2-D arrays are isize x jsize matrices
// addressed as At(i, j).
package grid

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape is returned when grid dimensions and array lengths disagree.
	ErrShape = errors.New("grid: shape mismatch")
	// ErrLayers is returned when fewer than two vertical layers are requested.
	ErrLayers = errors.New("grid: ksize must be at least 2")
)

// Grid2D is a structured 2-D grid. X and Y are isize x jsize.
type Grid2D struct {
	ISize, JSize int
	X, Y         *mat.Dense
}

// FromNative converts a flat array in native order into an isize x jsize
// matrix so that At(i, j) == flat[i+j*isize]. The input is not retained.
func FromNative(isize, jsize int, flat []float64) (*mat.Dense, error) {
	if isize <= 0 || jsize <= 0 {
		return nil, fmt.Errorf("%w: non-positive size %dx%d", ErrShape, isize, jsize)
	}
	if len(flat) != isize*jsize {
		return nil, fmt.Errorf("%w: %dx%d grid needs %d values, got %d", ErrShape, isize, jsize, isize*jsize, len(flat))
	}
	// Native order is row-major for a jsize x isize matrix.
	rows := mat.NewDense(jsize, isize, append([]float64(nil), flat...))
	return mat.DenseCopyOf(rows.T()), nil
}

// ToNative flattens an isize x jsize matrix back into native order. It is
// the inverse of FromNative.
func ToNative(m mat.Matrix) []float64 {
	isize, jsize := m.Dims()
	out := make([]float64, isize*jsize)
	for j := 0; j < jsize; j++ {
		for i := 0; i < isize; i++ {
			out[i+j*isize] = m.At(i, j)
		}
	}
	return out
}

// Load builds a Grid2D from native-order coordinate arrays.
func Load(isize, jsize int, x, y []float64) (*Grid2D, error) {
	gx, err := FromNative(isize, jsize, x)
	if err != nil {
		return nil, fmt.Errorf("x coordinates: %w", err)
	}
	gy, err := FromNative(isize, jsize, y)
	if err != nil {
		return nil, fmt.Errorf("y coordinates: %w", err)
	}
	return &Grid2D{ISize: isize, JSize: jsize, X: gx, Y: gy}, nil
}

// Rectangular builds an axis-aligned grid with node (i, j) at
// (x0 + i*dx, y0 + j*dy).
func Rectangular(isize, jsize int, x0, y0, dx, dy float64) (*Grid2D, error) {
	if isize <= 0 || jsize <= 0 {
		return nil, fmt.Errorf("%w: non-positive size %dx%d", ErrShape, isize, jsize)
	}
	gx := mat.NewDense(isize, jsize, nil)
	gy := mat.NewDense(isize, jsize, nil)
	for i := 0; i < isize; i++ {
		for j := 0; j < jsize; j++ {
			gx.Set(i, j, x0+float64(i)*dx)
			gy.Set(i, j, y0+float64(j)*dy)
		}
	}
	return &Grid2D{ISize: isize, JSize: jsize, X: gx, Y: gy}, nil
}

// Native returns the grid coordinates in native order.
func (g *Grid2D) Native() (x, y []float64) {
	return ToNative(g.X), ToNative(g.Y)
}
