// Command results-export reads the solutions of a finished debug-solver run
// and writes them as NetCDF, PNG plots or an HTML report.
//
// Usage:
//
//	results-export [-netcdf out.nc] [-plots dir] [-every n] [-report out.html] <container>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/export"
	"github.com/banshee-data/debug-solver/internal/plots"
	"github.com/banshee-data/debug-solver/internal/report"
	"github.com/banshee-data/debug-solver/internal/resultsdb"
	"github.com/banshee-data/debug-solver/internal/solver"
)

var (
	netcdfPath = flag.String("netcdf", "", "Write a NetCDF file")
	plotsDir   = flag.String("plots", "", "Write PNG heatmaps and probe series into this directory")
	every      = flag.Int("every", 10, "Heatmap every n steps")
	reportPath = flag.String("report", "", "Write an HTML report")
)

// outputs selects what export writes.
type outputs struct {
	netcdf, plotsDir, report string
	every                    int
}

func (o outputs) empty() bool {
	return o.netcdf == "" && o.plotsDir == "" && o.report == ""
}

func main() {
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: results-export [flags] <container>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	out := outputs{netcdf: *netcdfPath, plotsDir: *plotsDir, report: *reportPath, every: *every}
	if flag.NArg() != 1 || out.empty() {
		flag.Usage()
		os.Exit(2)
	}
	if err := exportResults(flag.Arg(0), out); err != nil {
		log.Fatalf("results-export: %v", err)
	}
}

func exportResults(path string, out outputs) error {
	db, err := resultsdb.Open(path, container.ModeRead)
	if err != nil {
		return err
	}
	defer db.Close()

	ds, err := export.Load(db, solver.FieldDepth, solver.FieldSigma)
	if err != nil {
		return err
	}
	log.Printf("loaded %d steps of %dx%dx%d grid from %s", ds.Steps(), ds.ISize, ds.JSize, ds.KSize, path)

	if out.netcdf != "" {
		if err := writeFile(out.netcdf, func(f *os.File) error { return export.WriteNetCDF(f, ds) }); err != nil {
			return err
		}
		log.Printf("wrote %s", out.netcdf)
	}

	if out.plotsDir != "" {
		p, err := plots.New(out.plotsDir)
		if err != nil {
			return err
		}
		files, err := p.Heatmaps(ds, out.every)
		if err != nil {
			return err
		}
		probe, err := p.ProbeSeries(ds, plots.DefaultProbes(ds))
		if err != nil {
			return err
		}
		log.Printf("wrote %d plots to %s", len(files)+1, filepath.Dir(probe))
	}

	if out.report != "" {
		title := fmt.Sprintf("%s depth", filepath.Base(path))
		if err := writeFile(out.report, func(f *os.File) error { return report.Write(f, ds, title) }); err != nil {
			return err
		}
		log.Printf("wrote %s", out.report)
	}
	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
