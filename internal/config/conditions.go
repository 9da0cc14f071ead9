package config

import (
	"errors"
	"fmt"
)

// Calculation condition names stored in a results container.
const (
	NameTimeEnd    = "time_end"
	NameKSize      = "ksize"
	NameAverageWL  = "average_WL"
	NameWaveHeight = "wave_height"
)

// ErrInvalid is wrapped by every validation failure in this package.
var ErrInvalid = errors.New("invalid configuration")

// ConditionReader reads named calculation conditions. Results containers
// satisfy it.
type ConditionReader interface {
	ReadInteger(name string) (int, error)
	ReadReal(name string) (float64, error)
}

// Conditions are the calculation conditions of one solver run.
type Conditions struct {
	TimeEnd    int     `json:"time_end"`
	KSize      int     `json:"ksize"`
	AverageWL  float64 `json:"average_WL"`
	WaveHeight float64 `json:"wave_height"`
}

// ReadConditions reads all four conditions from r and validates them.
func ReadConditions(r ConditionReader) (*Conditions, error) {
	var c Conditions
	var err error
	if c.TimeEnd, err = r.ReadInteger(NameTimeEnd); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", NameTimeEnd, err)
	}
	if c.KSize, err = r.ReadInteger(NameKSize); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", NameKSize, err)
	}
	if c.AverageWL, err = r.ReadReal(NameAverageWL); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", NameAverageWL, err)
	}
	if c.WaveHeight, err = r.ReadReal(NameWaveHeight); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", NameWaveHeight, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the conditions describe a runnable case.
func (c *Conditions) Validate() error {
	if c.TimeEnd < 0 {
		return fmt.Errorf("%w: %s must be non-negative, got %d", ErrInvalid, NameTimeEnd, c.TimeEnd)
	}
	// The top layer sits at k/(ksize-1) = 1, so a single layer is undefined.
	// A linspace(0, d, 1) extrusion would accept it with z = 0 and
	// Sigma = 0 everywhere; it is refused here instead.
	if c.KSize < 2 {
		return fmt.Errorf("%w: %s must be at least 2, got %d", ErrInvalid, NameKSize, c.KSize)
	}
	return nil
}

// Steps returns the number of timesteps in a full run: 0..TimeEnd inclusive.
func (c *Conditions) Steps() int {
	return c.TimeEnd + 1
}
