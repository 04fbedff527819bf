package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResults(t *testing.T) {
	res := NewResults(2)

	require.NoError(t, res.Set("income_tax", []float64{1, 2}))
	require.Error(t, res.Set("income_tax", []float64{1}))

	res.MarkUnknown("ny_fancy_credit")

	got, err := res.Calculate(context.Background(), "income_tax")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)

	got[0] = 99
	again, _ := res.Calculate(context.Background(), "income_tax")
	assert.Equal(t, 1.0, again[0], "callers get a copy")

	_, err = res.Calculate(context.Background(), "ny_fancy_credit")
	require.ErrorIs(t, err, ErrVariableNotFound)

	_, err = res.Calculate(context.Background(), "never_requested")
	require.ErrorIs(t, err, ErrVariableNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = res.Calculate(ctx, "income_tax")
	require.ErrorIs(t, err, context.Canceled)
}

func TestSimulationFunc(t *testing.T) {
	var sim Simulation = SimulationFunc(func(_ context.Context, variable string) ([]float64, error) {
		return []float64{float64(len(variable))}, nil
	})

	got, err := sim.Calculate(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, got)
}
