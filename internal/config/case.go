package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultCaseConfigPath is the path to the canonical case defaults file.
const DefaultCaseConfigPath = "config/case.defaults.json"

// CaseConfig describes a results container to create for a solver run: a
// rectangular input grid plus the calculation conditions. Omitted fields
// fall back to the defaults returned by the Get* methods, so partial
// files are safe.
type CaseConfig struct {
	// Grid params
	ISize   *int     `json:"isize,omitempty"`
	JSize   *int     `json:"jsize,omitempty"`
	DX      *float64 `json:"dx,omitempty"`
	DY      *float64 `json:"dy,omitempty"`
	OriginX *float64 `json:"origin_x,omitempty"`
	OriginY *float64 `json:"origin_y,omitempty"`

	// Calculation conditions
	TimeEnd    *int     `json:"time_end,omitempty"`
	KSize      *int     `json:"ksize,omitempty"`
	AverageWL  *float64 `json:"average_WL,omitempty"`
	WaveHeight *float64 `json:"wave_height,omitempty"`
}

// LoadCaseConfig loads a CaseConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadCaseConfig(path string) (*CaseConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &CaseConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultCaseConfig loads DefaultCaseConfigPath, searching the
// current directory and its parents. Panics if the file cannot be loaded,
// intended for test setup.
func MustLoadDefaultCaseConfig() *CaseConfig {
	candidates := []string{
		DefaultCaseConfigPath,
		"../../" + DefaultCaseConfigPath,    // from internal/config/
		"../../../" + DefaultCaseConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadCaseConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultCaseConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *CaseConfig) Validate() error {
	if c.ISize != nil && *c.ISize <= 0 {
		return fmt.Errorf("%w: isize must be positive, got %d", ErrInvalid, *c.ISize)
	}
	if c.JSize != nil && *c.JSize <= 0 {
		return fmt.Errorf("%w: jsize must be positive, got %d", ErrInvalid, *c.JSize)
	}
	if c.DX != nil && *c.DX <= 0 {
		return fmt.Errorf("%w: dx must be positive, got %f", ErrInvalid, *c.DX)
	}
	if c.DY != nil && *c.DY <= 0 {
		return fmt.Errorf("%w: dy must be positive, got %f", ErrInvalid, *c.DY)
	}
	return c.Conditions().Validate()
}

// GetISize returns the isize value or the default.
func (c *CaseConfig) GetISize() int {
	if c.ISize == nil {
		return 51 // default
	}
	return *c.ISize
}

// GetJSize returns the jsize value or the default.
func (c *CaseConfig) GetJSize() int {
	if c.JSize == nil {
		return 21 // default
	}
	return *c.JSize
}

// GetDX returns the dx value or the default.
func (c *CaseConfig) GetDX() float64 {
	if c.DX == nil {
		return 10.0 // default
	}
	return *c.DX
}

// GetDY returns the dy value or the default.
func (c *CaseConfig) GetDY() float64 {
	if c.DY == nil {
		return 10.0 // default
	}
	return *c.DY
}

// GetOriginX returns the origin_x value or the default.
func (c *CaseConfig) GetOriginX() float64 {
	if c.OriginX == nil {
		return 0
	}
	return *c.OriginX
}

// GetOriginY returns the origin_y value or the default.
func (c *CaseConfig) GetOriginY() float64 {
	if c.OriginY == nil {
		return 0
	}
	return *c.OriginY
}

// Conditions returns the calculation conditions with defaults applied.
func (c *CaseConfig) Conditions() *Conditions {
	cond := &Conditions{
		TimeEnd:    100,
		KSize:      11,
		AverageWL:  1.0,
		WaveHeight: 0.5,
	}
	if c.TimeEnd != nil {
		cond.TimeEnd = *c.TimeEnd
	}
	if c.KSize != nil {
		cond.KSize = *c.KSize
	}
	if c.AverageWL != nil {
		cond.AverageWL = *c.AverageWL
	}
	if c.WaveHeight != nil {
		cond.WaveHeight = *c.WaveHeight
	}
	return cond
}
