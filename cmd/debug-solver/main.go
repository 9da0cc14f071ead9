// Command debug-solver writes a synthetic time-varying depth field and its
// extruded 3-D grid into a results container, one solution per timestep.
//
// Usage:
//
//	debug-solver [-version] <container>
//	debug-solver -cancel|-update <container>
//
// -cancel and -update drop the request flags a running solver polls
// between steps, the way the GUI does.
//
// Set IRIC_SEPARATE_OUTPUT=1 to write each step to its own file under
// result/ next to the container.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/fsutil"
	"github.com/banshee-data/debug-solver/internal/resultsdb"
	"github.com/banshee-data/debug-solver/internal/solver"
	"github.com/banshee-data/debug-solver/internal/version"
)

// Exit statuses.
const (
	exitOK    = 0
	exitRun   = 1
	exitUsage = 2
)

func main() {
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opener := resultsdb.Opener(resultsdb.WithSeparateOutput(container.SeparateOutputFromEnv()))
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, opener, fsutil.OSFileSystem{})
	stop()
	os.Exit(code)
}

// run parses args and executes one solver run, returning the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, opener container.Opener, fsys fsutil.FileSystem) int {
	fs := flag.NewFlagSet("debug-solver", flag.ContinueOnError)
	fs.SetOutput(stderr)
	showVersion := fs.Bool("version", false, "Print version and exit")
	cancel := fs.Bool("cancel", false, "Ask the solver running on <container> to stop, then exit")
	update := fs.Bool("update", false, "Ask the solver running on <container> to flush solutions, then exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [-version] [-cancel|-update] <container>\n", fs.Name())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *showVersion {
		schema, err := resultsdb.LatestMigrationVersion()
		if err != nil {
			log.Printf("debug-solver: %v", err)
			return exitRun
		}
		fmt.Fprintf(stdout, "debug-solver %s, container schema %d\n", version.String(), schema)
		return exitOK
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "Error: CGNS file name not specified.")
		fs.Usage()
		return exitUsage
	}

	if *cancel || *update {
		request := resultsdb.RequestCancel
		if *update {
			request = resultsdb.RequestUpdate
		}
		if err := request(fsys, fs.Arg(0)); err != nil {
			log.Printf("debug-solver: %v", err)
			return exitRun
		}
		return exitOK
	}

	sum, err := solver.Run(ctx, fs.Arg(0), solver.Options{Opener: opener})
	if err != nil {
		log.Printf("debug-solver: %v", err)
		return exitRun
	}
	if sum.Canceled {
		log.Printf("run %s canceled after %d steps", sum.RunID, sum.Steps)
	}
	return exitOK
}
