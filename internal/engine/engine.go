package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"taxbridge/internal/batch"
	"taxbridge/internal/catalog"
	"taxbridge/internal/situation"
)

// ErrVariableNotFound is returned by Calculate for variables the engine
// does not define.
var ErrVariableNotFound = errors.New("engine: variable not found")

// Simulation holds computed values for one situation or dataset.
type Simulation interface {
	// Calculate returns one value per tax unit, in row order.
	Calculate(ctx context.Context, variable string) ([]float64, error)
}

// Engine simulates single situations.
type Engine interface {
	Simulate(ctx context.Context, sit *situation.Situation, variables []string) (Simulation, error)
}

// BatchEngine simulates whole datasets.
type BatchEngine interface {
	SimulateBatch(ctx context.Context, ds *batch.Dataset, variables []string) (Simulation, error)
}

// EntityFunc reports the entity an output variable is defined at.
type EntityFunc func(variable string) catalog.Entity

// TaxUnitEntities treats every variable as a tax-unit variable.
func TaxUnitEntities(string) catalog.Entity {
	return catalog.EntityTaxUnit
}

// SimulationFunc adapts a function to the Simulation interface.
type SimulationFunc func(ctx context.Context, variable string) ([]float64, error)

// Calculate calls f.
func (f SimulationFunc) Calculate(ctx context.Context, variable string) ([]float64, error) {
	return f(ctx, variable)
}

// Results is an in-memory Simulation.
type Results struct {
	rows    int
	values  map[string][]float64
	unknown map[string]struct{}
}

// NewResults returns empty results for rows tax units.
func NewResults(rows int) *Results {
	return &Results{
		rows:    rows,
		values:  map[string][]float64{},
		unknown: map[string]struct{}{},
	}
}

// Rows returns the number of tax units.
func (r *Results) Rows() int {
	return r.rows
}

// Set stores the per-tax-unit values of a variable.
func (r *Results) Set(variable string, values []float64) error {
	if len(values) != r.rows {
		return fmt.Errorf("engine: %s has %d values for %d tax units", variable, len(values), r.rows)
	}

	r.values[variable] = slices.Clone(values)
	delete(r.unknown, variable)

	return nil
}

// MarkUnknown records variables the engine does not define.
func (r *Results) MarkUnknown(variables ...string) {
	for _, v := range variables {
		r.unknown[v] = struct{}{}
	}
}

// Calculate returns the stored values. Unknown and never-set variables
// report ErrVariableNotFound.
func (r *Results) Calculate(ctx context.Context, variable string) ([]float64, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	values, ok := r.values[variable]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVariableNotFound, variable)
	}

	return slices.Clone(values), nil
}
