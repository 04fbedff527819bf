package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"taxbridge/internal/engine"
	"taxbridge/internal/normalize"
	"taxbridge/internal/runner"
	"taxbridge/internal/situation"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig     `yaml:"app"`
	Catalog   CatalogConfig         `yaml:"catalog"`
	Normalize NormalizeConfig       `yaml:"normalize"`
	Engine    EngineConfig          `yaml:"engine"`
	Reference ReferenceConfig       `yaml:"reference"`
	Options   situation.Adjustments `yaml:"options"`
	Archive   ArchiveConfig         `yaml:"archive"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	err := c.App.Validate()
	if err != nil {
		return err
	}

	err = c.Normalize.Validate()
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	err = c.Engine.Validate()
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	return c.Reference.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CatalogConfig selects the mapping catalog. An empty path uses the
// embedded catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// NormalizeConfig holds the defaulting parameters.
type NormalizeConfig struct {
	DefaultYear       int `yaml:"default_year"`
	AdultDependentAge int `yaml:"adult_dependent_age"`
}

// Validate validates the normalize configuration.
func (c *NormalizeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultYear, validation.Required, validation.Min(normalize.MinYear), validation.Max(normalize.MaxYear)),
		validation.Field(&c.AdultDependentAge, validation.Required, validation.Min(18), validation.Max(120)),
	)
}

// EngineConfig configures the tax engine clients.
type EngineConfig struct {
	Mode          string        `yaml:"mode"`
	APIURL        string        `yaml:"api_url"`
	Timeout       time.Duration `yaml:"timeout"`
	WorkerCommand []string      `yaml:"worker_command"`
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(string(runner.ModeBatch), string(runner.ModeHousehold))),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return err
	}

	switch runner.Mode(c.Mode) {
	case runner.ModeBatch:
		if len(c.WorkerCommand) == 0 || c.WorkerCommand[0] == "" {
			return fmt.Errorf("mode is %q but worker_command is empty", c.Mode)
		}
	case runner.ModeHousehold:
		if c.APIURL == "" {
			return fmt.Errorf("mode is %q but api_url is empty", c.Mode)
		}
	}

	return nil
}

// ReferenceConfig configures the reference calculator used for years the
// engine does not cover.
type ReferenceConfig struct {
	Path          string   `yaml:"path"`
	Args          []string `yaml:"args"`
	MinEngineYear int      `yaml:"min_engine_year"`
}

// Validate validates the reference configuration.
func (c *ReferenceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MinEngineYear, validation.Required, validation.Min(normalize.MinYear), validation.Max(normalize.MaxYear)),
	)
}

// ArchiveConfig holds the results archive location. An empty path
// disables archiving.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether archiving is configured.
func (c *ArchiveConfig) Enabled() bool {
	return c.Path != ""
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Normalize: NormalizeConfig{
			DefaultYear:       normalize.DefaultYear,
			AdultDependentAge: normalize.DefaultAdultDependentAge,
		},
		Engine: EngineConfig{
			Mode:    string(runner.ModeHousehold),
			APIURL:  engine.DefaultAPIURL,
			Timeout: engine.DefaultTimeout,
		},
		Reference: ReferenceConfig{
			MinEngineYear: runner.DefaultMinEngineYear,
		},
	}
}
