package resultsdb

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/monitoring"
)

// solution_schema.sql holds the tables of a per-step file in split-output mode.
//
//go:embed solution_schema.sql
var solutionSchemaSQL string

// solutionBlock is the state of an open BeginSolution/EndSolution pair.
// Index rows go through tx; payload goes through payloadTx, which is tx
// itself unless output is split.
type solutionBlock struct {
	step      int
	tx        *sql.Tx
	split     *sql.DB
	payloadTx *sql.Tx
}

func (b *solutionBlock) rollback() error {
	var errs []error
	if b.split != nil {
		if b.payloadTx != nil {
			errs = append(errs, ignoreDone(b.payloadTx.Rollback()))
		}
		errs = append(errs, b.split.Close())
	}
	errs = append(errs, ignoreDone(b.tx.Rollback()))
	return errors.Join(errs...)
}

func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// SolutionFileName returns the split-output file name of a step.
func SolutionFileName(step int) string {
	return fmt.Sprintf("Solution%d.db", step)
}

// BeginSolution opens the write block for the next solution step.
func (d *DB) BeginSolution() error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	if d.block != nil {
		return container.ErrSolutionOpen
	}

	var step int
	if err := d.db.QueryRow(`SELECT COALESCE(MAX(step), 0) + 1 FROM solutions`).Scan(&step); err != nil {
		return fmt.Errorf("failed to allocate solution step: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin solution %d: %w", step, err)
	}
	b := &solutionBlock{step: step, tx: tx, payloadTx: tx}

	var file sql.NullString
	if d.separate {
		rel := filepath.Join(ResultDir, SolutionFileName(step))
		file = sql.NullString{String: rel, Valid: true}
		if err := d.openSplit(b, filepath.Join(d.dir(), rel)); err != nil {
			tx.Rollback()
			return err
		}
	}

	_, err = tx.Exec(`INSERT INTO solutions (step, time, complete, file, written_at) VALUES (?, NULL, 0, ?, ?)`,
		step, file, unixSeconds(d.clock.Now()))
	if err != nil {
		b.rollback()
		return fmt.Errorf("failed to record solution %d: %w", step, err)
	}

	d.block = b
	return nil
}

func (d *DB) openSplit(b *solutionBlock, path string) error {
	if err := d.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}
	if d.fs.Exists(path) {
		if err := d.fs.Remove(path); err != nil {
			return fmt.Errorf("failed to replace %s: %w", path, err)
		}
	}
	split, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	split.SetMaxOpenConns(1)
	if _, err := split.Exec(solutionSchemaSQL); err != nil {
		split.Close()
		return fmt.Errorf("failed to initialise %s: %w", path, err)
	}
	ptx, err := split.Begin()
	if err != nil {
		split.Close()
		return fmt.Errorf("failed to begin %s: %w", path, err)
	}
	if _, err := ptx.Exec(`INSERT INTO solution (step, time) VALUES (?, NULL)`, b.step); err != nil {
		ptx.Rollback()
		split.Close()
		return fmt.Errorf("failed to record solution in %s: %w", path, err)
	}
	b.split = split
	b.payloadTx = ptx
	return nil
}

func (d *DB) openBlock() (*solutionBlock, error) {
	if err := d.checkWritable(); err != nil {
		return nil, err
	}
	if d.block == nil {
		return nil, container.ErrNoSolutionOpen
	}
	return d.block, nil
}

// WriteSolutionTime records the time of the open step.
func (d *DB) WriteSolutionTime(t float64) error {
	b, err := d.openBlock()
	if err != nil {
		return err
	}
	if _, err := b.tx.Exec(`UPDATE solutions SET time = ? WHERE step = ?`, t, b.step); err != nil {
		return fmt.Errorf("failed to write time of solution %d: %w", b.step, err)
	}
	if b.split != nil {
		if _, err := b.payloadTx.Exec(`UPDATE solution SET time = ? WHERE step = ?`, t, b.step); err != nil {
			return fmt.Errorf("failed to write time of solution %d: %w", b.step, err)
		}
	}
	return nil
}

// WriteNodeReal stores a node field of the open step. The value count
// must match the grid's node count.
func (d *DB) WriteNodeReal(grid container.GridID, name string, values []float64) error {
	b, err := d.openBlock()
	if err != nil {
		return err
	}
	n, err := d.gridNodes(grid)
	if err != nil {
		return err
	}
	if len(values) != n {
		return fmt.Errorf("field %q on grid %d: expected %d values, got %d", name, grid, n, len(values))
	}
	_, err = b.payloadTx.Exec(`
		INSERT OR REPLACE INTO solution_node_real (step, grid_id, name, vals) VALUES (?, ?, ?, ?)`,
		b.step, int(grid), name, encodeFloats(values))
	if err != nil {
		return fmt.Errorf("failed to write field %q of solution %d: %w", name, b.step, err)
	}
	return nil
}

// WriteGridCoords3D stores the coordinates of a 3-D grid for the open step.
func (d *DB) WriteGridCoords3D(grid container.GridID, x, y, z []float64) error {
	b, err := d.openBlock()
	if err != nil {
		return err
	}
	n, err := d.gridNodes(grid)
	if err != nil {
		return err
	}
	if len(x) != n || len(y) != n || len(z) != n {
		return fmt.Errorf("coordinates of grid %d: expected %d nodes, got x=%d y=%d z=%d", grid, n, len(x), len(y), len(z))
	}
	_, err = b.payloadTx.Exec(`
		INSERT OR REPLACE INTO solution_coords (step, grid_id, x, y, z) VALUES (?, ?, ?, ?, ?)`,
		b.step, int(grid), encodeFloats(x), encodeFloats(y), encodeFloats(z))
	if err != nil {
		return fmt.Errorf("failed to write coordinates of solution %d: %w", b.step, err)
	}
	return nil
}

// EndSolution commits the open step. The split file is committed first so
// the index never points at a missing payload.
func (d *DB) EndSolution() error {
	b, err := d.openBlock()
	if err != nil {
		return err
	}
	d.block = nil

	if _, err := b.tx.Exec(`UPDATE solutions SET complete = 1 WHERE step = ?`, b.step); err != nil {
		b.rollback()
		return fmt.Errorf("failed to complete solution %d: %w", b.step, err)
	}
	if b.split != nil {
		if err := b.payloadTx.Commit(); err != nil {
			b.rollback()
			return fmt.Errorf("failed to commit split solution %d: %w", b.step, err)
		}
		if err := b.split.Close(); err != nil {
			b.tx.Rollback()
			return fmt.Errorf("failed to close split solution %d: %w", b.step, err)
		}
	}
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit solution %d: %w", b.step, err)
	}
	return nil
}

// ClearSolutions removes every solution, every result grid and the
// split-output directory.
func (d *DB) ClearSolutions() error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	if d.block != nil {
		return container.ErrSolutionOpen
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin clear: %w", err)
	}
	stmts := []string{
		`DELETE FROM solution_node_real`,
		`DELETE FROM solution_coords`,
		`DELETE FROM solutions`,
		`DELETE FROM grids WHERE grid_id > 1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to clear solutions: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}

	if d.fs.Exists(d.resultDir()) {
		if err := d.fs.RemoveAll(d.resultDir()); err != nil {
			return fmt.Errorf("failed to remove %s: %w", d.resultDir(), err)
		}
	}
	monitoring.Logf("cleared previous solutions from %s", d.path)
	return nil
}
