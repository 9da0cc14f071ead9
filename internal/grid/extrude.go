package grid

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Grid3D is a structured 3-D grid with coordinates in native order.
// X and Y are fixed at construction; Z follows the depth field.
type Grid3D struct {
	ISize, JSize, KSize int
	X, Y, Z             []float64
}

// Extrude broadcasts the horizontal coordinates of g across ksize layers.
// Z starts at zero everywhere.
func Extrude(g *Grid2D, ksize int) (*Grid3D, error) {
	if ksize < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrLayers, ksize)
	}
	x2, y2 := g.Native()
	layer := len(x2)
	g3 := &Grid3D{
		ISize: g.ISize,
		JSize: g.JSize,
		KSize: ksize,
		X:     make([]float64, layer*ksize),
		Y:     make([]float64, layer*ksize),
		Z:     make([]float64, layer*ksize),
	}
	for k := 0; k < ksize; k++ {
		copy(g3.X[k*layer:], x2)
		copy(g3.Y[k*layer:], y2)
	}
	return g3, nil
}

// Index returns the native flat index of node (i, j, k).
func (g *Grid3D) Index(i, j, k int) int {
	return i + g.ISize*(j+g.JSize*k)
}

// SetDepth places the layers evenly between 0 and the local depth:
// z(i, j, k) = depth(i, j) * k/(ksize-1).
func (g *Grid3D) SetDepth(depth mat.Matrix) error {
	r, c := depth.Dims()
	if r != g.ISize || c != g.JSize {
		return fmt.Errorf("%w: depth is %dx%d, grid is %dx%d", ErrShape, r, c, g.ISize, g.JSize)
	}
	fractions, err := LayerFractions(g.KSize)
	if err != nil {
		return err
	}
	for k, f := range fractions {
		for j := 0; j < g.JSize; j++ {
			for i := 0; i < g.ISize; i++ {
				g.Z[g.Index(i, j, k)] = depth.At(i, j) * f
			}
		}
	}
	return nil
}

// LayerFractions returns k/(ksize-1) for each layer: 0 at the bottom and
// exactly 1 at the top.
func LayerFractions(ksize int) ([]float64, error) {
	if ksize < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrLayers, ksize)
	}
	out := make([]float64, ksize)
	for k := range out {
		out[k] = float64(k) / float64(ksize-1)
	}
	return out, nil
}

// Sigma returns the relative vertical position field of an
// isize x jsize x ksize grid in native order. It depends only on k.
func Sigma(isize, jsize, ksize int) ([]float64, error) {
	if isize <= 0 || jsize <= 0 {
		return nil, fmt.Errorf("%w: non-positive size %dx%d", ErrShape, isize, jsize)
	}
	fractions, err := LayerFractions(ksize)
	if err != nil {
		return nil, err
	}
	layer := isize * jsize
	out := make([]float64, layer*ksize)
	for k, f := range fractions {
		for n := 0; n < layer; n++ {
			out[k*layer+n] = f
		}
	}
	return out, nil
}
