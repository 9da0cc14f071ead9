package export

import (
	"fmt"

	"github.com/ctessum/cdf"

	"github.com/banshee-data/debug-solver/internal/version"
)

// NetCDF variable names.
const (
	VarTime  = "time"
	VarX     = "x"
	VarY     = "y"
	VarDepth = "depth"
	VarZ     = "z"
	VarSigma = "sigma"
)

// WriteNetCDF writes ds as a NetCDF classic file. Dimensions are ordered
// (time, k, j, i) so the last index varies fastest, matching native order.
func WriteNetCDF(w cdf.ReaderWriterAt, ds *Dataset) error {
	h := cdf.NewHeader(
		[]string{"time", "k", "j", "i"},
		[]int{ds.Steps(), ds.KSize, ds.JSize, ds.ISize})
	h.AddAttribute("", "title", "Synthetic water depth")
	h.AddAttribute("", "source", "debug-solver "+version.Version)
	h.AddAttribute("", "isize", []int32{int32(ds.ISize)})
	h.AddAttribute("", "jsize", []int32{int32(ds.JSize)})
	h.AddAttribute("", "ksize", []int32{int32(ds.KSize)})

	vars := []struct {
		name, units, description string
		dims                     []string
		data                     []float64
	}{
		{VarTime, "step", "solution time", []string{"time"}, ds.Times},
		{VarX, "m", "node x coordinate", []string{"j", "i"}, ds.X},
		{VarY, "m", "node y coordinate", []string{"j", "i"}, ds.Y},
		{VarDepth, "m", "water depth", []string{"time", "j", "i"}, flatten(ds.Depth)},
		{VarZ, "m", "3-D grid node elevation", []string{"time", "k", "j", "i"}, flatten(ds.Z)},
		{VarSigma, "1", "relative vertical position", []string{"k", "j", "i"}, ds.Sigma},
	}
	for _, v := range vars {
		h.AddVariable(v.name, v.dims, []float64{0})
		h.AddAttribute(v.name, "units", v.units)
		h.AddAttribute(v.name, "description", v.description)
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("failed to create netcdf file: %w", err)
	}
	for _, v := range vars {
		if err := writeVar(f, v.name, v.data); err != nil {
			return fmt.Errorf("writing variable %s: %w", v.name, err)
		}
	}
	return nil
}

func writeVar(f *cdf.File, name string, data []float64) error {
	end := f.Header.Lengths(name)
	n := 1
	for _, l := range end {
		n *= l
	}
	if len(data) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data))
	}
	start := make([]int, len(end))
	_, err := f.Writer(name, start, end).Write(data)
	return err
}

func flatten(steps [][]float64) []float64 {
	var out []float64
	for _, s := range steps {
		out = append(out, s...)
	}
	return out
}
