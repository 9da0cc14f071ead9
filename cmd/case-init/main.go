// Command case-init creates a results container holding a rectangular
// input grid and the calculation conditions read by debug-solver.
//
// Usage:
//
//	case-init [-config case.json] [-force] <container>
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/debug-solver/internal/config"
	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/fsutil"
	"github.com/banshee-data/debug-solver/internal/grid"
	"github.com/banshee-data/debug-solver/internal/resultsdb"
)

var (
	configPath = flag.String("config", "", "Case JSON file (defaults apply to omitted fields)")
	force      = flag.Bool("force", false, "Overwrite an existing container")
)

// errExists is returned when the target container exists and -force is unset.
var errExists = errors.New("container already exists (use -force to overwrite)")

func main() {
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: case-init [-config case.json] [-force] <container>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := &config.CaseConfig{}
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadCaseConfig(*configPath); err != nil {
			log.Fatalf("case-init: %v", err)
		}
	}

	path := flag.Arg(0)
	if err := createCase(path, cfg, *force); err != nil {
		log.Fatalf("case-init: %v", err)
	}
	cond := cfg.Conditions()
	log.Printf("created %s: %dx%d grid, time_end=%d, ksize=%d",
		path, cfg.GetISize(), cfg.GetJSize(), cond.TimeEnd, cond.KSize)
}

// createCase writes a fresh container at path from cfg. Split solutions and
// request flags from an earlier case at the same path are removed.
func createCase(path string, cfg *config.CaseConfig, force bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		if !force {
			return fmt.Errorf("%s: %w", path, errExists)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to remove %s: %w", path+suffix, err)
			}
		}
	}
	if err := resultsdb.RemoveFlags(fsutil.OSFileSystem{}, path); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(filepath.Dir(path), resultsdb.ResultDir)); err != nil {
		return fmt.Errorf("failed to remove old split output: %w", err)
	}

	g, err := grid.Rectangular(cfg.GetISize(), cfg.GetJSize(),
		cfg.GetOriginX(), cfg.GetOriginY(), cfg.GetDX(), cfg.GetDY())
	if err != nil {
		return err
	}

	db, err := resultsdb.Open(path, container.ModeCreate)
	if err != nil {
		return err
	}
	x, y := g.Native()
	cond := cfg.Conditions()
	err = errors.Join(
		db.WriteGrid2D(g.ISize, g.JSize, x, y),
		db.WriteInteger(config.NameTimeEnd, cond.TimeEnd),
		db.WriteInteger(config.NameKSize, cond.KSize),
		db.WriteReal(config.NameAverageWL, cond.AverageWL),
		db.WriteReal(config.NameWaveHeight, cond.WaveHeight),
	)
	if err == nil {
		var schema uint
		if schema, _, err = db.MigrateVersion(); err == nil {
			log.Printf("%s: container schema %d", path, schema)
		}
	}
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	return err
}
