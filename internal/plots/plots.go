// Package plots renders depth heatmaps and probe time series of an
// exported dataset as PNG files.
package plots

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/debug-solver/internal/export"
)

// ErrTooSmall is returned for grids a heatmap cannot be drawn on.
var ErrTooSmall = errors.New("plots: heatmaps need at least 2x2 nodes")

// Probe is a grid node whose depth is followed over time.
type Probe struct {
	I, J int
}

// Plotter writes plots into one output directory.
type Plotter struct {
	outputDir string
}

// New creates a Plotter writing into outputDir, creating it if needed.
func New(outputDir string) (*Plotter, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("no output directory configured")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Plotter{outputDir: outputDir}, nil
}

// OutputDir returns the directory plots are written to.
func (p *Plotter) OutputDir() string { return p.outputDir }

// depthGrid adapts one step of a dataset to plotter.GridXYZ. Columns are
// i and rows are j; axis positions come from the first row and column.
type depthGrid struct {
	ds   *export.Dataset
	step int
}

func (g depthGrid) Dims() (c, r int) { return g.ds.ISize, g.ds.JSize }
func (g depthGrid) Z(c, r int) float64 {
	return g.ds.Depth[g.step][c+r*g.ds.ISize]
}
func (g depthGrid) X(c int) float64 { return g.ds.X[c] }
func (g depthGrid) Y(r int) float64 { return g.ds.Y[r*g.ds.ISize] }

// Heatmaps writes depth_tNNNN.png for every nth step, plus the last step.
// All frames share one colour scale. It returns the written file names.
func (p *Plotter) Heatmaps(ds *export.Dataset, every int) ([]string, error) {
	if ds.ISize < 2 || ds.JSize < 2 {
		return nil, ErrTooSmall
	}
	if every < 1 {
		every = 1
	}
	lo, hi := depthRange(ds)
	pal := palette.Heat(12, 1)

	var files []string
	for s := 0; s < ds.Steps(); s++ {
		if s%every != 0 && s != ds.Steps()-1 {
			continue
		}
		hm := plotter.NewHeatMap(depthGrid{ds: ds, step: s}, pal)
		hm.Min, hm.Max = lo, hi

		pl := plot.New()
		pl.Title.Text = fmt.Sprintf("Depth at t = %g", ds.Times[s])
		pl.X.Label.Text = "x (m)"
		pl.Y.Label.Text = "y (m)"
		pl.Add(hm)

		name := filepath.Join(p.outputDir, fmt.Sprintf("depth_t%04d.png", s))
		if err := pl.Save(8*vg.Inch, 6*vg.Inch, name); err != nil {
			return files, fmt.Errorf("save heatmap %d: %w", s, err)
		}
		files = append(files, name)
	}
	return files, nil
}

// ProbeSeries writes depth_probes.png with one depth line per probe.
func (p *Plotter) ProbeSeries(ds *export.Dataset, probes []Probe) (string, error) {
	pl := plot.New()
	pl.Title.Text = "Depth at probe nodes"
	pl.X.Label.Text = "t"
	pl.Y.Label.Text = "Depth (m)"

	colors := generateColors(len(probes))
	for n, pr := range probes {
		if pr.I < 0 || pr.I >= ds.ISize || pr.J < 0 || pr.J >= ds.JSize {
			return "", fmt.Errorf("probe (%d, %d) outside %dx%d grid", pr.I, pr.J, ds.ISize, ds.JSize)
		}
		pts := make(plotter.XYs, ds.Steps())
		for s := range pts {
			pts[s] = plotter.XY{X: ds.Times[s], Y: ds.Depth[s][pr.I+pr.J*ds.ISize]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("probe (%d, %d): %w", pr.I, pr.J, err)
		}
		line.Color = colors[n]
		line.Width = vg.Points(1)
		pl.Add(line)
		pl.Legend.Add(fmt.Sprintf("i=%d j=%d", pr.I, pr.J), line)
	}
	pl.Legend.Top = true
	pl.Legend.Left = false
	pl.Legend.XOffs = -10
	pl.Legend.YOffs = -10

	name := filepath.Join(p.outputDir, "depth_probes.png")
	if err := pl.Save(14*vg.Inch, 6*vg.Inch, name); err != nil {
		return "", fmt.Errorf("save probe plot: %w", err)
	}
	return name, nil
}

// DefaultProbes returns the grid centre and two opposite corners.
func DefaultProbes(ds *export.Dataset) []Probe {
	return []Probe{
		{I: 0, J: 0},
		{I: ds.ISize / 2, J: ds.JSize / 2},
		{I: ds.ISize - 1, J: ds.JSize - 1},
	}
}

func depthRange(ds *export.Dataset) (lo, hi float64) {
	for s, d := range ds.Depth {
		dlo, dhi := floats.Min(d), floats.Max(d)
		if s == 0 || dlo < lo {
			lo = dlo
		}
		if s == 0 || dhi > hi {
			hi = dhi
		}
	}
	if lo == hi {
		// HeatMap needs a non-empty range.
		hi = lo + 1
	}
	return lo, hi
}

// generateColors creates a palette of distinct colors for probe lines
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
