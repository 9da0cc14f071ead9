package resultsdb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/debug-solver/internal/container"
)

// WriteGrid2D stores the input structured grid as grid 1, replacing any
// previous one. Coordinates are in native order.
func (d *DB) WriteGrid2D(isize, jsize int, x, y []float64) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	if isize <= 0 || jsize <= 0 {
		return fmt.Errorf("grid 2d: non-positive size %dx%d", isize, jsize)
	}
	n := isize * jsize
	if len(x) != n || len(y) != n {
		return fmt.Errorf("grid 2d: expected %d nodes, got x=%d y=%d", n, len(x), len(y))
	}
	_, err := d.execer().Exec(`
		INSERT OR REPLACE INTO grids (grid_id, dimension, isize, jsize, ksize, x, y, z)
		VALUES (?, 2, ?, ?, 1, ?, ?, NULL)`,
		int(container.Grid2DID), isize, jsize, encodeFloats(x), encodeFloats(y))
	if err != nil {
		return fmt.Errorf("failed to write grid 2d: %w", err)
	}
	return nil
}

// GridSize2D returns the node counts of grid 1.
func (d *DB) GridSize2D() (int, int, error) {
	if err := d.checkOpen(); err != nil {
		return 0, 0, err
	}
	var isize, jsize int
	err := d.execer().QueryRow(
		`SELECT isize, jsize FROM grids WHERE grid_id = ? AND dimension = 2`,
		int(container.Grid2DID)).Scan(&isize, &jsize)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("grid 2d: %w", container.ErrNotFound)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read grid 2d size: %w", err)
	}
	return isize, jsize, nil
}

// GridCoords2D returns the coordinates of grid 1 in native order.
func (d *DB) GridCoords2D() ([]float64, []float64, error) {
	if err := d.checkOpen(); err != nil {
		return nil, nil, err
	}
	var xb, yb []byte
	err := d.execer().QueryRow(
		`SELECT x, y FROM grids WHERE grid_id = ? AND dimension = 2`,
		int(container.Grid2DID)).Scan(&xb, &yb)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("grid 2d: %w", container.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read grid 2d coordinates: %w", err)
	}
	x, err := decodeFloats(xb)
	if err != nil {
		return nil, nil, fmt.Errorf("grid 2d x: %w", err)
	}
	y, err := decodeFloats(yb)
	if err != nil {
		return nil, nil, fmt.Errorf("grid 2d y: %w", err)
	}
	return x, y, nil
}

// WriteGrid3D stores a result 3-D grid under the next free grid id.
func (d *DB) WriteGrid3D(isize, jsize, ksize int, x, y, z []float64) (container.GridID, error) {
	if err := d.checkWritable(); err != nil {
		return 0, err
	}
	if isize <= 0 || jsize <= 0 || ksize <= 0 {
		return 0, fmt.Errorf("grid 3d: non-positive size %dx%dx%d", isize, jsize, ksize)
	}
	n := isize * jsize * ksize
	if len(x) != n || len(y) != n || len(z) != n {
		return 0, fmt.Errorf("grid 3d: expected %d nodes, got x=%d y=%d z=%d", n, len(x), len(y), len(z))
	}

	ex := d.execer()
	var id int
	if err := ex.QueryRow(`SELECT COALESCE(MAX(grid_id), ?) + 1 FROM grids`, int(container.Grid2DID)).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate grid id: %w", err)
	}
	_, err := ex.Exec(`
		INSERT INTO grids (grid_id, dimension, isize, jsize, ksize, x, y, z)
		VALUES (?, 3, ?, ?, ?, ?, ?, ?)`,
		id, isize, jsize, ksize, encodeFloats(x), encodeFloats(y), encodeFloats(z))
	if err != nil {
		return 0, fmt.Errorf("failed to write grid 3d: %w", err)
	}
	return container.GridID(id), nil
}

// GridSize3D returns the node counts of a stored grid. 2-D grids report
// ksize 1.
func (d *DB) GridSize3D(grid container.GridID) (isize, jsize, ksize int, err error) {
	if err := d.checkOpen(); err != nil {
		return 0, 0, 0, err
	}
	err = d.execer().QueryRow(`SELECT isize, jsize, ksize FROM grids WHERE grid_id = ?`, int(grid)).
		Scan(&isize, &jsize, &ksize)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, 0, fmt.Errorf("grid %d: %w", grid, container.ErrNotFound)
	}
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read grid %d size: %w", grid, err)
	}
	return isize, jsize, ksize, nil
}

// gridNodes returns the node count of a stored grid.
func (d *DB) gridNodes(grid container.GridID) (int, error) {
	isize, jsize, ksize, err := d.GridSize3D(grid)
	if err != nil {
		return 0, err
	}
	return isize * jsize * ksize, nil
}
