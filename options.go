package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kodeflow-dev/taskscheduler/metrics"
)

// Option configures a Scheduler. Use NewOptions(opts...) to construct a
// Scheduler via options rather than a hand-built Config.
type Option func(*Config)

// WithMaxWorkers sets the fixed worker pool size (default 2).
func WithMaxWorkers(n int) Option {
	return func(c *Config) { c.MaxWorkers = n }
}

// WithPositionCacheTTL overrides the position service's cache TTL
// (default 200ms).
func WithPositionCacheTTL(d time.Duration) Option {
	return func(c *Config) { c.PositionCacheTTL = d }
}

// WithEventBusWorkers sizes the event bus's async dispatch pool
// (default 4).
func WithEventBusWorkers(n int) Option {
	return func(c *Config) { c.EventBusWorkers = n }
}

// WithQueueScanInterval overrides the timeout scanner's wake period
// (default 1s).
func WithQueueScanInterval(d time.Duration) Option {
	return func(c *Config) { c.QueueScanInterval = d }
}

// WithRetryCap overrides the maximum number of automatic retries
// (default 3).
func WithRetryCap(n int) Option {
	return func(c *Config) { c.RetryCap = n }
}

// WithLogger overrides the scheduler's diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics overrides the scheduler's metrics provider.
func WithMetrics(p metrics.Provider) Option {
	return func(c *Config) { c.Metrics = p }
}

// NewOptions constructs a Scheduler from functional options, applying
// defaults first. It is the preferred constructor; New(cfg) remains for
// callers who already build a Config.
func NewOptions(opts ...Option) (*Scheduler, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			panic("nil scheduler option")
		}
		opt(&cfg)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", Namespace, err)
	}
	return newScheduler(&cfg), nil
}
