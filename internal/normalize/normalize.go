package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"taxbridge/internal/common"
	"taxbridge/internal/flat"
)

// ErrUnknownLevel is wrapped when idtl is not one of the output levels.
var ErrUnknownLevel = errors.New("idtl must be 0, 2 or 5")

// Normalizer applies defaults and legacy conversion to flat records.
type Normalizer struct {
	defaults          []Default
	adultDependentAge int
	logger            *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDefaultYear sets the tax year used when a record carries none.
func WithDefaultYear(year int) Option {
	return func(n *Normalizer) {
		n.defaults = Defaults(year)
	}
}

// WithAdultDependentAge sets the age given to dependents beyond the dep18 count.
func WithAdultDependentAge(age int) Option {
	return func(n *Normalizer) {
		n.adultDependentAge = age
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// New returns a Normalizer with the documented defaults.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		defaults:          Defaults(DefaultYear),
		adultDependentAge: DefaultAdultDependentAge,
		logger:            slog.Default(),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Normalize returns a copy of rec with legacy dependents expanded, every
// defaulted field present and integral, and dependent ages cleaned up.
func (n *Normalizer) Normalize(rec flat.Record) (flat.Record, error) {
	for _, f := range integralFields {
		if v, ok := rec.Lookup(f); ok && math.IsNaN(v) {
			rec.Unset(f)
		}
	}

	rec, converted, err := ConvertLegacyDependents(rec, n.adultDependentAge)
	if err != nil {
		return flat.Record{}, err
	}

	if converted && rec.Int(flat.FieldDepx) > flat.MaxDependents {
		n.logger.Warn("normalize: dependents beyond the age columns get the default child age",
			slog.Int64("taxsimid", rec.ID()),
			slog.Int("depx", rec.Int(flat.FieldDepx)))
	}

	for _, d := range n.defaults {
		if d.Applies(&rec) {
			rec.Set(d.Field, d.Value)
		}
	}

	for _, f := range integralFields {
		rec.Set(f, math.Trunc(rec.Get(f)))
	}

	if !common.InRange(MinYear, rec.Year(), MaxYear) {
		return flat.Record{}, &flat.MalformedInputError{
			ID:    rec.ID(),
			Field: flat.FieldYear.String(),
			Value: fmt.Sprint(rec.Year()),
			Err:   fmt.Errorf("year outside %d..%d", MinYear, MaxYear),
		}
	}

	if !rec.Level().IsKnown() {
		return flat.Record{}, &flat.MalformedInputError{
			ID:    rec.ID(),
			Field: flat.FieldIdtl.String(),
			Value: fmt.Sprint(rec.Int(flat.FieldIdtl)),
			Err:   ErrUnknownLevel,
		}
	}

	return NormalizeAges(rec), nil
}

// NormalizeAll normalizes every record, stopping at the first failure.
func (n *Normalizer) NormalizeAll(records []flat.Record) ([]flat.Record, error) {
	out := make([]flat.Record, len(records))

	for i, rec := range records {
		norm, err := n.Normalize(rec)
		if err != nil {
			return nil, err
		}

		out[i] = norm
	}

	return out, nil
}

func formatCounts(c13, c17, c18 int) string {
	return fmt.Sprintf("dep13=%d dep17=%d dep18=%d", c13, c17, c18)
}
