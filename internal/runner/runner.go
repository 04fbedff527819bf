package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"taxbridge/internal/batch"
	"taxbridge/internal/catalog"
	"taxbridge/internal/engine"
	"taxbridge/internal/extract"
	"taxbridge/internal/flat"
	"taxbridge/internal/normalize"
	"taxbridge/internal/refcalc"
	"taxbridge/internal/situation"
	"taxbridge/internal/state"
)

var (
	// ErrMissingID is returned for records without a taxsimid.
	ErrMissingID = errors.New("runner: record has no taxsimid")

	// ErrDuplicateID is returned when two records share a taxsimid.
	ErrDuplicateID = errors.New("runner: duplicate taxsimid")

	// ErrIDMismatch is returned when the produced rows do not carry exactly
	// the input identifiers.
	ErrIDMismatch = errors.New("runner: output taxsimids do not match input")

	// ErrNoEngine is returned when engine years are present but no engine
	// is configured for the mode.
	ErrNoEngine = errors.New("runner: no engine configured")
)

// Runner runs records end to end.
type Runner struct {
	catalog    *catalog.Catalog
	states     *state.Registry
	normalizer *normalize.Normalizer
	situations *situation.Builder
	batches    *batch.Builder
	extractor  *extract.Extractor

	engine        engine.Engine
	batchEngine   engine.BatchEngine
	reference     *refcalc.Runner
	mode          Mode
	minEngineYear int
	adjust        situation.Adjustments
	logger        *slog.Logger
}

// New returns a runner for cat.
func New(cat *catalog.Catalog, states *state.Registry, opts ...Option) *Runner {
	r := &Runner{
		catalog:       cat,
		states:        states,
		mode:          ModeBatch,
		minEngineYear: DefaultMinEngineYear,
		reference:     refcalc.New(""),
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.normalizer == nil {
		r.normalizer = normalize.New(normalize.WithLogger(r.logger))
	}

	r.situations = situation.NewBuilder(cat, situation.WithAdjustments(r.adjust))
	r.batches = batch.NewBuilder(cat, states, batch.WithAdjustments(r.adjust))
	r.extractor = extract.New(cat, extract.WithLogger(r.logger))

	return r
}

// Mode returns the engine mode.
func (r *Runner) Mode() Mode {
	return r.mode
}

// Normalize validates identifiers and normalizes every record.
func (r *Runner) Normalize(records []flat.Record) ([]flat.Record, error) {
	err := CheckIDs(records)
	if err != nil {
		return nil, err
	}

	return r.normalizer.NormalizeAll(records)
}

// Situations normalizes records and builds one situation per record.
func (r *Runner) Situations(records []flat.Record) ([]*situation.Situation, error) {
	norm, err := r.Normalize(records)
	if err != nil {
		return nil, err
	}

	out := make([]*situation.Situation, len(norm))

	for i, rec := range norm {
		sit, err := r.situations.Build(rec.Year(), r.states.Abbreviation(rec.StateCode()), rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", rec.ID(), err)
		}

		out[i] = sit
	}

	return out, nil
}

// Run calculates every record and returns the output rows in input order.
func (r *Runner) Run(ctx context.Context, records []flat.Record) (flat.Table, error) {
	norm, err := r.Normalize(records)
	if err != nil {
		return flat.Table{}, err
	}

	var engineRecs, refRecs []flat.Record

	for _, rec := range norm {
		if rec.Year() >= r.minEngineYear {
			engineRecs = append(engineRecs, rec)
		} else {
			refRecs = append(refRecs, rec)
		}
	}

	r.logger.Info("runner: routing records",
		slog.Int("engine", len(engineRecs)),
		slog.Int("reference", len(refRecs)),
		slog.String("mode", string(r.mode)))

	var table flat.Table

	if len(engineRecs) > 0 {
		rows, err := r.runEngine(ctx, engineRecs)
		if err != nil {
			return flat.Table{}, err
		}

		table.MergeColumns(r.columns(engineRecs))
		table.Rows = append(table.Rows, rows...)
	}

	if len(refRecs) > 0 {
		r.warnEngineOnly(len(refRecs))

		ref, err := r.reference.Run(ctx, refRecs)
		if err != nil {
			return flat.Table{}, fmt.Errorf("runner: %d record(s) before %d: %w", len(refRecs), r.minEngineYear, err)
		}

		table.MergeColumns(ref.Columns)
		table.Rows = append(table.Rows, ref.Rows...)
	}

	table.Rows, err = RestoreOrder(ids(norm), table.Rows)
	if err != nil {
		return flat.Table{}, err
	}

	return table, nil
}

func (r *Runner) runEngine(ctx context.Context, records []flat.Record) ([]flat.OutputRow, error) {
	switch r.mode {
	case ModeHousehold:
		if r.engine == nil {
			return nil, fmt.Errorf("%w for %s mode", ErrNoEngine, r.mode)
		}

		return r.runHouseholds(ctx, records)
	default:
		if r.batchEngine == nil {
			return nil, fmt.Errorf("%w for %s mode", ErrNoEngine, r.mode)
		}

		return r.runBatches(ctx, records)
	}
}

func (r *Runner) runHouseholds(ctx context.Context, records []flat.Record) ([]flat.OutputRow, error) {
	rows := make([]flat.OutputRow, 0, len(records))

	for _, rec := range records {
		st := r.states.Abbreviation(rec.StateCode())

		sit, err := r.situations.Build(rec.Year(), st, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", rec.ID(), err)
		}

		sim, err := r.engine.Simulate(ctx, sit, r.catalog.Variables(rec.Level(), st))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", rec.ID(), err)
		}

		row, err := r.extractor.Single(ctx, sim, rec, st)
		if err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func (r *Runner) runBatches(ctx context.Context, records []flat.Record) ([]flat.OutputRow, error) {
	byYear := map[int][]flat.Record{}
	for _, rec := range records {
		byYear[rec.Year()] = append(byYear[rec.Year()], rec)
	}

	var rows []flat.OutputRow

	for _, year := range slices.Sorted(maps.Keys(byYear)) {
		group := byYear[year]

		ds, err := r.batches.Build(group, year)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", year, err)
		}

		sim, err := r.batchEngine.SimulateBatch(ctx, ds, r.datasetVariables(ds))
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", year, err)
		}

		out, err := r.extractor.Batch(ctx, sim, ds, group)
		if err != nil {
			return nil, err
		}

		rows = append(rows, out...)
	}

	return rows, nil
}

// datasetVariables returns the variables any partition of ds needs.
func (r *Runner) datasetVariables(ds *batch.Dataset) []string {
	var vars []string

	seen := map[string]struct{}{}

	for _, part := range ds.Partitions() {
		for _, v := range r.catalog.Variables(part.Level, part.State) {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				vars = append(vars, v)
			}
		}
	}

	return vars
}

// columns returns the output columns of every level present in records.
func (r *Runner) columns(records []flat.Record) []string {
	var t flat.Table

	seen := map[flat.Level]struct{}{}

	for i := range records {
		level := records[i].Level()
		if _, ok := seen[level]; ok {
			continue
		}

		seen[level] = struct{}{}
		t.MergeColumns(r.catalog.Columns(level))
	}

	return t.Columns
}

func (r *Runner) warnEngineOnly(count int) {
	var active []string

	if r.adjust.DisableSALT {
		active = append(active, "disable_salt")
	}

	if r.adjust.AssumeW2Wages {
		active = append(active, "assume_w2_wages")
	}

	if len(active) == 0 {
		return
	}

	r.logger.Warn("runner: options only apply to engine years",
		slog.String("options", strings.Join(active, ", ")),
		slog.Int("min_engine_year", r.minEngineYear),
		slog.Int("ignored_records", count))
}

// CheckIDs reports records without an identifier or with a repeated one.
func CheckIDs(records []flat.Record) error {
	seen := make(map[int64]int, len(records))

	for i := range records {
		if !records[i].Has(flat.FieldTaxsimID) {
			return fmt.Errorf("%w: record at position %d", ErrMissingID, i)
		}

		id := records[i].ID()
		if first, ok := seen[id]; ok {
			return fmt.Errorf("%w: %d at positions %d and %d", ErrDuplicateID, id, first, i)
		}

		seen[id] = i
	}

	return nil
}

// RestoreOrder returns rows ordered like ids. Every id must match exactly
// one row.
func RestoreOrder(ids []int64, rows []flat.OutputRow) ([]flat.OutputRow, error) {
	byID := make(map[int64]flat.OutputRow, len(rows))

	for _, row := range rows {
		if _, ok := byID[row.ID]; ok {
			return nil, fmt.Errorf("%w: %d produced twice", ErrIDMismatch, row.ID)
		}

		byID[row.ID] = row
	}

	if len(byID) != len(ids) {
		return nil, fmt.Errorf("%w: %d rows for %d records", ErrIDMismatch, len(byID), len(ids))
	}

	out := make([]flat.OutputRow, len(ids))

	for i, id := range ids {
		row, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: no row for %d", ErrIDMismatch, id)
		}

		out[i] = row
	}

	return out, nil
}

func ids(records []flat.Record) []int64 {
	out := make([]int64, len(records))
	for i := range records {
		out[i] = records[i].ID()
	}

	return out
}
