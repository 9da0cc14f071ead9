package resultsdb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/banshee-data/debug-solver/internal/security"
)

// SolutionInfo describes one stored solution step.
type SolutionInfo struct {
	Step     int
	Time     float64
	Complete bool
	// File is the split-output payload file relative to the container, or
	// empty when the payload lives in the container.
	File string
}

// Coords are the node coordinates of a grid at one solution step.
type Coords struct {
	X, Y, Z []float64
}

// Solutions lists the stored solution steps in order. Incomplete steps are
// included with Complete false.
func (d *DB) Solutions() ([]SolutionInfo, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if d.block != nil {
		return nil, container.ErrSolutionOpen
	}
	rows, err := d.db.Query(`SELECT step, time, complete, file FROM solutions ORDER BY step`)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}
	defer rows.Close()

	var out []SolutionInfo
	for rows.Next() {
		var s SolutionInfo
		var t sql.NullFloat64
		var file sql.NullString
		if err := rows.Scan(&s.Step, &t, &s.Complete, &file); err != nil {
			return nil, fmt.Errorf("failed to scan solution: %w", err)
		}
		s.Time = t.Float64
		s.File = file.String
		out = append(out, s)
	}
	return out, rows.Err()
}

// solution returns the index row of a step.
func (d *DB) solution(step int) (SolutionInfo, error) {
	var s SolutionInfo
	var t sql.NullFloat64
	var file sql.NullString
	err := d.db.QueryRow(`SELECT step, time, complete, file FROM solutions WHERE step = ?`, step).
		Scan(&s.Step, &t, &s.Complete, &file)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("solution %d: %w", step, container.ErrNotFound)
	}
	if err != nil {
		return s, fmt.Errorf("failed to read solution %d: %w", step, err)
	}
	s.Time = t.Float64
	s.File = file.String
	return s, nil
}

// payload runs fn against the database holding the payload of step.
func (d *DB) payload(step int, fn func(q *sql.DB) error) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if d.block != nil {
		return container.ErrSolutionOpen
	}
	s, err := d.solution(step)
	if err != nil {
		return err
	}
	if s.File == "" {
		return fn(d.db)
	}
	path, err := security.ResolveWithin(d.dir(), s.File)
	if err != nil {
		return fmt.Errorf("solution %d: %w", step, err)
	}
	if !d.fs.Exists(path) {
		return fmt.Errorf("solution %d payload %s: %w", step, s.File, container.ErrNotFound)
	}
	split, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer split.Close()
	return fn(split)
}

// ReadSolutionNodeReal returns a node field written at a solution step.
func (d *DB) ReadSolutionNodeReal(step int, grid container.GridID, name string) ([]float64, error) {
	var values []float64
	err := d.payload(step, func(q *sql.DB) error {
		var blob []byte
		err := q.QueryRow(`SELECT vals FROM solution_node_real WHERE step = ? AND grid_id = ? AND name = ?`,
			step, int(grid), name).Scan(&blob)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("solution %d field %q on grid %d: %w", step, name, grid, container.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read solution %d field %q: %w", step, name, err)
		}
		values, err = decodeFloats(blob)
		return err
	})
	return values, err
}

// ReadSolutionCoords returns grid coordinates written at a solution step.
func (d *DB) ReadSolutionCoords(step int, grid container.GridID) (Coords, error) {
	var c Coords
	err := d.payload(step, func(q *sql.DB) error {
		var xb, yb, zb []byte
		err := q.QueryRow(`SELECT x, y, z FROM solution_coords WHERE step = ? AND grid_id = ?`,
			step, int(grid)).Scan(&xb, &yb, &zb)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("solution %d coordinates of grid %d: %w", step, grid, container.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read solution %d coordinates: %w", step, err)
		}
		if c.X, err = decodeFloats(xb); err != nil {
			return err
		}
		if c.Y, err = decodeFloats(yb); err != nil {
			return err
		}
		c.Z, err = decodeFloats(zb)
		return err
	})
	return c, err
}

// ResultGrids returns the ids of the stored 3-D result grids.
func (d *DB) ResultGrids() ([]container.GridID, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := d.execer().Query(`SELECT grid_id FROM grids WHERE dimension = 3 ORDER BY grid_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list grids: %w", err)
	}
	defer rows.Close()
	var ids []container.GridID
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan grid: %w", err)
		}
		ids = append(ids, container.GridID(id))
	}
	return ids, rows.Err()
}
