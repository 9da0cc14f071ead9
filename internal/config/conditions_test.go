package config

import (
	"errors"
	"testing"

	"github.com/banshee-data/debug-solver/internal/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededMock() *container.MockContainer {
	m := container.NewMockContainer(2, 2)
	m.Integers[NameTimeEnd] = 10
	m.Integers[NameKSize] = 3
	m.Reals[NameAverageWL] = 1.0
	m.Reals[NameWaveHeight] = 0.5
	return m
}

func TestReadConditions(t *testing.T) {
	c, err := ReadConditions(seededMock())
	require.NoError(t, err)
	assert.Equal(t, Conditions{TimeEnd: 10, KSize: 3, AverageWL: 1.0, WaveHeight: 0.5}, *c)
	assert.Equal(t, 11, c.Steps())
}

func TestReadConditions_Missing(t *testing.T) {
	m := seededMock()
	delete(m.Reals, NameWaveHeight)

	_, err := ReadConditions(m)
	require.Error(t, err)
	assert.ErrorIs(t, err, container.ErrNotFound)
	assert.Contains(t, err.Error(), NameWaveHeight)
}

func TestReadConditions_Invalid(t *testing.T) {
	m := seededMock()
	m.Integers[NameKSize] = 1

	_, err := ReadConditions(m)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestConditionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		cond    Conditions
		wantErr bool
	}{
		{"minimal", Conditions{TimeEnd: 0, KSize: 2}, false},
		{"negative wave height allowed", Conditions{TimeEnd: 5, KSize: 4, WaveHeight: -1}, false},
		{"negative time_end", Conditions{TimeEnd: -1, KSize: 2}, true},
		{"single layer", Conditions{TimeEnd: 1, KSize: 1}, true},
		{"zero layers", Conditions{TimeEnd: 1, KSize: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}
