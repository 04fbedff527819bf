package runner

import (
	"fmt"
	"log/slog"

	"taxbridge/internal/engine"
	"taxbridge/internal/normalize"
	"taxbridge/internal/refcalc"
	"taxbridge/internal/situation"
)

// Mode selects how the engine is called.
type Mode string

// Engine modes.
const (
	ModeBatch     Mode = "batch"
	ModeHousehold Mode = "household"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBatch, ModeHousehold:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("runner: unknown mode %q", s)
	}
}

// DefaultMinEngineYear is the first tax year sent to the engine.
const DefaultMinEngineYear = 2021

// Option configures a Runner.
type Option func(*Runner)

// WithEngine sets the single-situation engine used in household mode.
func WithEngine(e engine.Engine) Option {
	return func(r *Runner) {
		r.engine = e
	}
}

// WithBatchEngine sets the dataset engine used in batch mode.
func WithBatchEngine(e engine.BatchEngine) Option {
	return func(r *Runner) {
		r.batchEngine = e
	}
}

// WithReference sets the reference calculator for early years.
func WithReference(ref *refcalc.Runner) Option {
	return func(r *Runner) {
		r.reference = ref
	}
}

// WithMode sets the engine mode.
func WithMode(m Mode) Option {
	return func(r *Runner) {
		r.mode = m
	}
}

// WithMinEngineYear sets the first year routed to the engine.
func WithMinEngineYear(year int) Option {
	return func(r *Runner) {
		r.minEngineYear = year
	}
}

// WithAdjustments sets the engine-only adjustments.
func WithAdjustments(a situation.Adjustments) Option {
	return func(r *Runner) {
		r.adjust = a
	}
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(r *Runner) {
		r.normalizer = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}
