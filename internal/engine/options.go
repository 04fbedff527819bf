package engine

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds one HTTP call when no client is supplied.
const DefaultTimeout = 60 * time.Second

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
	entity     EntityFunc
}

// Option configures the engine clients.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHTTPClient sets the HTTP client used by HTTPClient.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTimeout uses a fresh HTTP client with the given timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.httpClient = &http.Client{Timeout: d}
	}
}

// WithEntities sets how WorkerClient learns each variable's entity.
func WithEntities(f EntityFunc) Option {
	return func(o *options) {
		o.entity = f
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:     slog.Default(),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		entity:     TaxUnitEntities,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
