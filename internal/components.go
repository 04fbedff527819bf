package internal

import (
	"fmt"
	"log/slog"

	"taxbridge/internal/catalog"
	"taxbridge/internal/engine"
	"taxbridge/internal/normalize"
	"taxbridge/internal/refcalc"
	"taxbridge/internal/runner"
	"taxbridge/internal/state"
	"taxbridge/internal/store"
)

// Components are the wired services a configuration describes.
type Components struct {
	States  *state.Registry
	Catalog *catalog.Catalog
	Runner  *runner.Runner

	// Archive is nil when archiving is disabled.
	Archive *store.DB
}

// NewComponents loads the catalog and wires the runner, engines and
// archive described by cfg.
func NewComponents(cfg *Config, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	states := state.NewRegistry()

	cat, err := loadCatalog(cfg.Catalog, states)
	if err != nil {
		return nil, err
	}

	mode, err := runner.ParseMode(cfg.Engine.Mode)
	if err != nil {
		return nil, err
	}

	opts := []runner.Option{
		runner.WithMode(mode),
		runner.WithMinEngineYear(cfg.Reference.MinEngineYear),
		runner.WithAdjustments(cfg.Options),
		runner.WithLogger(logger),
		runner.WithNormalizer(normalize.New(
			normalize.WithDefaultYear(cfg.Normalize.DefaultYear),
			normalize.WithAdultDependentAge(cfg.Normalize.AdultDependentAge),
			normalize.WithLogger(logger),
		)),
		runner.WithReference(refcalc.New(cfg.Reference.Path,
			refcalc.WithArgs(cfg.Reference.Args...),
			refcalc.WithLogger(logger),
		)),
	}

	if cfg.Engine.APIURL != "" {
		opts = append(opts, runner.WithEngine(engine.NewHTTPClient(cfg.Engine.APIURL,
			engine.WithTimeout(cfg.Engine.Timeout),
			engine.WithLogger(logger),
		)))
	}

	if len(cfg.Engine.WorkerCommand) > 0 {
		worker, err := engine.NewWorkerClient(cfg.Engine.WorkerCommand,
			engine.WithEntities(cat.EntityOf),
			engine.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("init worker engine: %w", err)
		}

		opts = append(opts, runner.WithBatchEngine(worker))
	}

	c := &Components{
		States:  states,
		Catalog: cat,
		Runner:  runner.New(cat, states, opts...),
	}

	if cfg.Archive.Enabled() {
		db, err := store.Open(cfg.Archive.Path)
		if err != nil {
			return nil, fmt.Errorf("init archive: %w", err)
		}

		c.Archive = db
	}

	return c, nil
}

// Close releases the archive.
func (c *Components) Close() error {
	if c.Archive == nil {
		return nil
	}

	return c.Archive.Close()
}

func loadCatalog(cfg CatalogConfig, states *state.Registry) (*catalog.Catalog, error) {
	cat, err := catalog.LoadPath(cfg.Path, states)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return cat, nil
}
