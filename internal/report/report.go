// Package report renders an HTML summary of an exported dataset with
// go-echarts: per-step depth statistics and the final depth field.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/debug-solver/internal/export"
)

var heatColors = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// StepStats summarises the depth field of one step.
type StepStats struct {
	Time   float64
	Min    float64
	Mean   float64
	Max    float64
	StdDev float64
}

// Stats computes StepStats for every step of ds.
func Stats(ds *export.Dataset) []StepStats {
	out := make([]StepStats, ds.Steps())
	for s, d := range ds.Depth {
		mean, std := stat.MeanStdDev(d, nil)
		out[s] = StepStats{
			Time:   ds.Times[s],
			Min:    floats.Min(d),
			Mean:   mean,
			Max:    floats.Max(d),
			StdDev: std,
		}
	}
	return out
}

// Write renders the report page for ds to w.
func Write(w io.Writer, ds *export.Dataset, title string) error {
	if ds.Steps() == 0 {
		return export.ErrNoSolutions
	}
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(statsChart(ds, title), finalDepthChart(ds))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func statsChart(ds *export.Dataset, title string) *charts.Line {
	stats := Stats(ds)
	x := make([]string, len(stats))
	lo := make([]opts.LineData, len(stats))
	mean := make([]opts.LineData, len(stats))
	hi := make([]opts.LineData, len(stats))
	for s, st := range stats {
		x[s] = fmt.Sprintf("%g", st.Time)
		lo[s] = opts.LineData{Value: st.Min}
		mean[s] = opts.LineData{Value: st.Mean}
		hi[s] = opts.LineData{Value: st.Max}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%dx%d grid, %d steps", ds.ISize, ds.JSize, ds.Steps())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Depth (m)", NameLocation: "middle", NameGap: 40}),
	)
	line.SetXAxis(x).
		AddSeries("min", lo).
		AddSeries("mean", mean).
		AddSeries("max", hi)
	return line
}

func finalDepthChart(ds *export.Dataset) *charts.HeatMap {
	last := ds.Steps() - 1
	d := ds.Depth[last]

	is := make([]string, ds.ISize)
	for i := range is {
		is[i] = fmt.Sprint(i)
	}
	js := make([]string, ds.JSize)
	for j := range js {
		js[j] = fmt.Sprint(j)
	}
	data := make([]opts.HeatMapData, 0, len(d))
	for j := 0; j < ds.JSize; j++ {
		for i := 0; i < ds.ISize; i++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, d[i+j*ds.ISize]}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Final depth", Subtitle: fmt.Sprintf("t = %g", ds.Times[last])}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: is, Name: "i"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: js, Name: "j"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(floats.Min(d)),
			Max:        float32(floats.Max(d)),
			InRange:    &opts.VisualMapInRange{Color: heatColors},
		}),
	)
	hm.AddSeries("depth", data)
	return hm
}
