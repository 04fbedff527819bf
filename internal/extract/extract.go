package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"taxbridge/internal/batch"
	"taxbridge/internal/catalog"
	"taxbridge/internal/engine"
	"taxbridge/internal/flat"
)

// Round rounds half away from zero to two decimals.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger for missing-variable warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// Extractor maps engine results onto flat output rows.
type Extractor struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// New returns an extractor for cat.
func New(cat *catalog.Catalog, opts ...Option) *Extractor {
	e := &Extractor{catalog: cat, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Single extracts the output row of one record from a single-situation
// simulation.
func (e *Extractor) Single(ctx context.Context, sim engine.Simulation, rec flat.Record, stateAbbrev string) (flat.OutputRow, error) {
	cache := newCache(sim, 1, e.logger, rec.Year())

	row := newRow(&rec)

	for _, b := range e.catalog.Outputs(rec.Level(), stateAbbrev) {
		v, err := e.value(ctx, cache, b, &rec, 0, stateAbbrev)
		if err != nil {
			return flat.OutputRow{}, fmt.Errorf("record %d: %w", rec.ID(), err)
		}

		row.Values[b.Field] = v
	}

	return row, nil
}

// Batch extracts one output row per dataset row, in dataset order. records
// must be the records the dataset was built from.
func (e *Extractor) Batch(ctx context.Context, sim engine.Simulation, ds *batch.Dataset, records []flat.Record) ([]flat.OutputRow, error) {
	if len(records) != ds.Len() {
		return nil, fmt.Errorf("extract: %d records for a dataset of %d", len(records), ds.Len())
	}

	cache := newCache(sim, ds.Len(), e.logger, ds.Year)

	rows := make([]flat.OutputRow, ds.Len())
	for i := range records {
		rows[i] = newRow(&records[i])
	}

	for _, part := range ds.Partitions() {
		for _, b := range e.catalog.Outputs(part.Level, part.State) {
			for _, r := range part.Rows {
				v, err := e.value(ctx, cache, b, &records[r], r, part.State)
				if err != nil {
					return nil, fmt.Errorf("year %d, state %s: %w", ds.Year, part.State, err)
				}

				rows[r].Values[b.Field] = v
			}
		}
	}

	return rows, nil
}

func newRow(rec *flat.Record) flat.OutputRow {
	return flat.OutputRow{
		ID:     rec.ID(),
		Year:   rec.Year(),
		State:  rec.StateCode(),
		Values: map[string]float64{},
	}
}

func (e *Extractor) value(ctx context.Context, cache *cache, b catalog.Binding, rec *flat.Record, row int, state string) (float64, error) {
	switch b.Kind {
	case catalog.KindSynthesized:
		return rec.Get(b.Source), nil
	case catalog.KindPlaceholder:
		return b.Constant, nil
	}

	var total float64

	for _, variable := range b.Variables {
		values, err := cache.get(ctx, variable, state)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", b.Field, err)
		}

		total += Round(values[row])
	}

	return Round(total), nil
}

// cache computes each variable once per simulation.
type cache struct {
	sim    engine.Simulation
	rows   int
	logger *slog.Logger
	year   int
	values map[string][]float64
}

func newCache(sim engine.Simulation, rows int, logger *slog.Logger, year int) *cache {
	return &cache{sim: sim, rows: rows, logger: logger, year: year, values: map[string][]float64{}}
}

func (c *cache) get(ctx context.Context, variable, state string) ([]float64, error) {
	if v, ok := c.values[variable]; ok {
		return v, nil
	}

	values, err := c.sim.Calculate(ctx, variable)

	switch {
	case errors.Is(err, engine.ErrVariableNotFound):
		c.logger.Warn("extract: variable not implemented, using zero",
			slog.String("variable", variable),
			slog.String("state", state),
			slog.Int("year", c.year))

		values = make([]float64, c.rows)
	case err != nil:
		return nil, err
	case len(values) != c.rows:
		return nil, fmt.Errorf("%s: engine returned %d values for %d tax units", variable, len(values), c.rows)
	}

	c.values[variable] = values

	return values, nil
}
