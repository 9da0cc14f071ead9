// Package resultsdb is a structured-grid results container stored in
// SQLite. It implements container.Container for the solver, plus the
// authoring API used to create cases and the read-back API used by
// exporters.
package resultsdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/fsutil"
	"github.com/banshee-data/debug-solver/internal/monitoring"
	"github.com/banshee-data/debug-solver/internal/timeutil"
)

// Flag files dropped next to the container by the GUI.
const (
	CancelFlag = ".cancel"
	UpdateFlag = ".update"
)

// ResultDir is the split-output directory, relative to the container.
const ResultDir = "result"

// DB is an open results container.
type DB struct {
	db       *sql.DB
	path     string
	mode     container.Mode
	separate bool
	fs       fsutil.FileSystem
	clock    timeutil.Clock

	block  *solutionBlock
	closed bool
}

var _ container.Container = (*DB)(nil)
var _ container.RunRecorder = (*DB)(nil)

// Option configures Open.
type Option func(*DB)

// WithSeparateOutput writes each solution step to its own file under
// ResultDir instead of the container itself.
func WithSeparateOutput(separate bool) Option {
	return func(d *DB) { d.separate = separate }
}

// WithFileSystem replaces the filesystem used for flag files and the
// split-output directory.
func WithFileSystem(fsys fsutil.FileSystem) Option {
	return func(d *DB) { d.fs = fsys }
}

// WithClock replaces the clock used to stamp solutions and runs.
func WithClock(c timeutil.Clock) Option {
	return func(d *DB) { d.clock = c }
}

// Open opens the container at path. ModeRead and ModeModify require an
// existing file; ModeCreate creates one. Writable containers are migrated
// to the latest schema.
func Open(path string, mode container.Mode, opts ...Option) (*DB, error) {
	d := &DB{
		path:  path,
		mode:  mode,
		fs:    fsutil.OSFileSystem{},
		clock: timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(d)
	}

	if mode != container.ModeCreate {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("open %s: %w", path, container.ErrNotFound)
			}
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps the solution transaction and every other
	// statement on the same SQLite handle.
	db.SetMaxOpenConns(1)
	d.db = db

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	if mode != container.ModeRead {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if mode != container.ModeRead {
		if err := d.MigrateUp(); err != nil {
			db.Close()
			return nil, err
		}
	}

	return d, nil
}

// Opener returns a container.Opener that opens resultsdb containers with opts.
func Opener(opts ...Option) container.Opener {
	return func(path string, mode container.Mode) (container.Container, error) {
		return Open(path, mode, opts...)
	}
}

// Path returns the container file path.
func (d *DB) Path() string { return d.path }

func (d *DB) dir() string { return filepath.Dir(d.path) }

func (d *DB) resultDir() string { return filepath.Join(d.dir(), ResultDir) }

func (d *DB) checkWritable() error {
	if d.closed {
		return container.ErrClosed
	}
	if d.mode == container.ModeRead {
		return container.ErrReadOnly
	}
	return nil
}

func (d *DB) checkOpen() error {
	if d.closed {
		return container.ErrClosed
	}
	return nil
}

// execer returns the open solution transaction, or the database itself
// outside a solution block.
func (d *DB) execer() interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
} {
	if d.block != nil {
		return d.block.tx
	}
	return d.db
}

// Close releases the container. An open solution block is rolled back and
// reported as container.ErrSolutionOpen.
func (d *DB) Close() error {
	if d.closed {
		return container.ErrClosed
	}
	d.closed = true

	var errs []error
	if d.block != nil {
		monitoring.Logf("closing %s with solution step %d still open; discarding it", d.path, d.block.step)
		errs = append(errs, d.block.rollback(), container.ErrSolutionOpen)
		d.block = nil
	}
	errs = append(errs, d.db.Close())
	return errors.Join(errs...)
}
