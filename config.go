package scheduler

import (
	"log/slog"
	"time"

	"github.com/kodeflow-dev/taskscheduler/metrics"
)

// Config holds the scheduler's tunables. Zero-value fields are filled
// in by defaultConfig before use (§6's Constants list).
//
// New(cfg) is the stable, Config-based constructor; NewOptions(opts...)
// is the preferred options-based constructor and will eventually
// absorb the New name, mirroring the teacher's own Config/Option
// deprecation note.
type Config struct {
	// MaxWorkers is the fixed worker pool size (default 2).
	MaxWorkers int

	// PositionCacheTTL bounds how long the position service serves a
	// cached snapshot before recomputing (default 200ms).
	PositionCacheTTL time.Duration

	// EventBusWorkers sizes the event bus's async dispatch pool
	// (default 4).
	EventBusWorkers int

	// QueueScanInterval is the timeout scanner's wake period (default 1s).
	QueueScanInterval time.Duration

	// RetryCap is the maximum number of automatic retries a failed
	// task receives before it is left FAILED (default 3).
	RetryCap int

	// Logger receives scheduler diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics receives scheduler instrumentation. Defaults to a
	// no-op provider.
	Metrics metrics.Provider
}

func defaultConfig() Config {
	return Config{
		MaxWorkers:        2,
		PositionCacheTTL:  200 * time.Millisecond,
		EventBusWorkers:   4,
		QueueScanInterval: time.Second,
		RetryCap:          3,
		Logger:            slog.Default(),
		Metrics:           metrics.NewNoopProvider(),
	}
}

func validateConfig(c *Config) error {
	if c.MaxWorkers <= 0 {
		return ErrInvalidConfig
	}
	if c.PositionCacheTTL <= 0 {
		return ErrInvalidConfig
	}
	if c.EventBusWorkers <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueScanInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryCap < 0 {
		return ErrInvalidConfig
	}
	if c.Logger == nil {
		return ErrInvalidConfig
	}
	if c.Metrics == nil {
		return ErrInvalidConfig
	}
	return nil
}
