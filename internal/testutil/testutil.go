// Package testutil provides shared test helpers: the default catalog, record
// builders, a stub engine and a temporary results archive.
package testutil

import (
	"context"
	"os"
	"slices"
	"sync"
	"testing"

	"taxbridge/internal/batch"
	"taxbridge/internal/catalog"
	"taxbridge/internal/engine"
	"taxbridge/internal/flat"
	"taxbridge/internal/situation"
	"taxbridge/internal/state"
	"taxbridge/internal/store"
)

// Catalog loads the embedded catalog.
func Catalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.LoadDefault(state.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	return cat
}

// Record builds a record with an identifier, year and state code.
func Record(id int64, year, stateCode int, fields map[flat.Field]float64) flat.Record {
	rec := flat.NewRecord(fields)
	rec.Set(flat.FieldTaxsimID, float64(id))
	rec.Set(flat.FieldYear, float64(year))
	rec.Set(flat.FieldState, float64(stateCode))

	return rec
}

// StubEngine is an Engine and BatchEngine returning Values[variable] for
// every tax unit. Variables in Unknown are reported as not found and
// variables in Fail return their error.
type StubEngine struct {
	Values  map[string]float64
	Unknown []string
	Fail    map[string]error

	mu           sync.Mutex
	households   int
	batchYears   []int
	calculations map[string]int
}

// Simulate implements engine.Engine.
func (s *StubEngine) Simulate(_ context.Context, _ *situation.Situation, _ []string) (engine.Simulation, error) {
	s.mu.Lock()
	s.households++
	s.mu.Unlock()

	return s.simulation(1), nil
}

// SimulateBatch implements engine.BatchEngine.
func (s *StubEngine) SimulateBatch(_ context.Context, ds *batch.Dataset, _ []string) (engine.Simulation, error) {
	s.mu.Lock()
	s.batchYears = append(s.batchYears, ds.Year)
	s.mu.Unlock()

	return s.simulation(ds.Len()), nil
}

func (s *StubEngine) simulation(rows int) engine.Simulation {
	return engine.SimulationFunc(func(_ context.Context, variable string) ([]float64, error) {
		s.mu.Lock()
		if s.calculations == nil {
			s.calculations = map[string]int{}
		}

		s.calculations[variable]++
		s.mu.Unlock()

		if err, ok := s.Fail[variable]; ok {
			return nil, err
		}

		if slices.Contains(s.Unknown, variable) {
			return nil, engine.ErrVariableNotFound
		}

		values := make([]float64, rows)
		for i := range values {
			values[i] = s.Values[variable]
		}

		return values, nil
	})
}

// HouseholdCalls returns the number of Simulate calls.
func (s *StubEngine) HouseholdCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.households
}

// BatchYears returns the year of every SimulateBatch call, in call order.
func (s *StubEngine) BatchYears() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.batchYears)
}

// Calculations returns how often a variable was calculated.
func (s *StubEngine) Calculations(variable string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calculations[variable]
}

// TestDB creates a temporary results archive that is removed after the test.
func TestDB(t *testing.T) *store.DB {
	t.Helper()

	dbFile, err := os.CreateTemp("", "taxbridge-test-*.db")
	if err != nil {
		t.Fatal(err)
	}

	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
