// Package depth generates the synthetic water-depth field: a mean water
// level plus the outer product of a sine wave along i and a cosine wave
// along j, both drifting with time.
package depth

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Phase periods in timesteps. The field repeats every IPeriod steps
// because JPeriod divides it.
const (
	IPeriod = 60
	JPeriod = 30
)

// Field returns the isize x jsize depth field at timestep t:
//
//	depth(i, j) = averageWL + waveHeight*sin(2π(i/isize + t/60))*cos(2π(j/jsize + t/30))
func Field(isize, jsize int, t float64, averageWL, waveHeight float64) *mat.Dense {
	iRatios := mat.NewVecDense(isize, nil)
	for i := 0; i < isize; i++ {
		iRatios.SetVec(i, math.Sin(2*math.Pi*(float64(i)/float64(isize)+t/IPeriod)))
	}
	jRatios := mat.NewVecDense(jsize, nil)
	for j := 0; j < jsize; j++ {
		jRatios.SetVec(j, math.Cos(2*math.Pi*(float64(j)/float64(jsize)+t/JPeriod)))
	}

	d := mat.NewDense(isize, jsize, nil)
	d.Outer(waveHeight, iRatios, jRatios)
	d.Apply(func(_, _ int, v float64) float64 { return averageWL + v }, d)
	return d
}

// Bounds returns the range every depth value falls in.
func Bounds(averageWL, waveHeight float64) (lo, hi float64) {
	h := math.Abs(waveHeight)
	return averageWL - h, averageWL + h
}
