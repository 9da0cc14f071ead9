package resultsdb

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/debug-solver/internal/container"
)

// FileWriter is the part of fsutil.FileSystem needed to drop flag files.
type FileWriter interface {
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// Run is one solver invocation recorded in the container.
type Run struct {
	ID            string
	SolverVersion string
	Status        string
	Steps         int
	StartedAt     time.Time
	FinishedAt    *time.Time
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnixSeconds(s float64) time.Time {
	return time.Unix(0, int64(s*1e9)).UTC()
}

// StartRun records the start of a solver run.
func (d *DB) StartRun(id, solverVersion string) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	_, err := d.execer().Exec(`
		INSERT INTO runs (run_id, solver_version, status, steps, started_at)
		VALUES (?, ?, ?, 0, ?)`, id, solverVersion, container.RunRunning, unixSeconds(d.clock.Now()))
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", id, err)
	}
	return nil
}

// FinishRun records the outcome of a solver run.
func (d *DB) FinishRun(id, status string, steps int) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	res, err := d.execer().Exec(`
		UPDATE runs SET status = ?, steps = ?, finished_at = ? WHERE run_id = ?`,
		status, steps, unixSeconds(d.clock.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", id, container.ErrNotFound)
	}
	return nil
}

// Runs returns the recorded runs, oldest first.
func (d *DB) Runs() ([]Run, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := d.execer().Query(`
		SELECT run_id, solver_version, status, steps, started_at, finished_at
		FROM runs ORDER BY started_at, run_id`)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started float64
		var finished sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.SolverVersion, &r.Status, &r.Steps, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = fromUnixSeconds(started)
		if finished.Valid {
			t := fromUnixSeconds(finished.Float64)
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// isMissingTable reports a container written before the runs table existed
// and opened read-only, so never migrated.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
