package resultsdb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/debug-solver/internal/container"
)

// WriteInteger stores an integer calculation condition.
func (d *DB) WriteInteger(name string, v int) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	_, err := d.execer().Exec(`
		INSERT OR REPLACE INTO conditions (name, value_type, int_value, real_value)
		VALUES (?, 'integer', ?, NULL)`, name, v)
	if err != nil {
		return fmt.Errorf("failed to write condition %q: %w", name, err)
	}
	return nil
}

// WriteReal stores a real calculation condition.
func (d *DB) WriteReal(name string, v float64) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	_, err := d.execer().Exec(`
		INSERT OR REPLACE INTO conditions (name, value_type, int_value, real_value)
		VALUES (?, 'real', NULL, ?)`, name, v)
	if err != nil {
		return fmt.Errorf("failed to write condition %q: %w", name, err)
	}
	return nil
}

func (d *DB) readCondition(name string) (valueType string, iv sql.NullInt64, rv sql.NullFloat64, err error) {
	if err = d.checkOpen(); err != nil {
		return
	}
	err = d.execer().QueryRow(
		`SELECT value_type, int_value, real_value FROM conditions WHERE name = ?`, name).
		Scan(&valueType, &iv, &rv)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("condition %q: %w", name, container.ErrNotFound)
		return
	}
	if err != nil {
		err = fmt.Errorf("failed to read condition %q: %w", name, err)
	}
	return
}

// ReadInteger reads an integer calculation condition.
func (d *DB) ReadInteger(name string) (int, error) {
	valueType, iv, _, err := d.readCondition(name)
	if err != nil {
		return 0, err
	}
	if valueType != "integer" || !iv.Valid {
		return 0, fmt.Errorf("condition %q is %s, not integer", name, valueType)
	}
	return int(iv.Int64), nil
}

// ReadReal reads a real calculation condition. Integer conditions are
// widened.
func (d *DB) ReadReal(name string) (float64, error) {
	valueType, iv, rv, err := d.readCondition(name)
	if err != nil {
		return 0, err
	}
	switch {
	case valueType == "real" && rv.Valid:
		return rv.Float64, nil
	case valueType == "integer" && iv.Valid:
		return float64(iv.Int64), nil
	default:
		return 0, fmt.Errorf("condition %q has no value", name)
	}
}
