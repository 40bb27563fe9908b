// Package metrics provides a minimal, swappable instrumentation surface
// (counters, up/down counters, histograms) for the scheduler: dispatch
// counts, retry counts, queue-wait/execution-duration histograms, and an
// active-worker gauge. NoopProvider is the default; InMemoryProvider backs
// the scheduler's own tests and small deployments that want the values back
// without wiring a real metrics backend.
package metrics

import "time"

// Provider constructs instruments used to record metrics.
// Implementations must be safe for concurrent use.
//
// Keep this interface minimal and stable. If you need new capabilities later,
// introduce separate optional interfaces rather than expanding this surface.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts.
// Methods must be safe for concurrent use.
type Counter interface {
	Add(n int64)
}

// UpDownCounter records values that can move up or down (e.g., current in-flight).
// Methods must be safe for concurrent use.
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records distribution of float64 measurements (e.g., durations in seconds).
// Methods must be safe for concurrent use.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries optional instrument metadata. It's advisory only.
type InstrumentConfig struct {
	Description string
	Unit        string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets an advisory description for the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets an advisory unit for the instrument (e.g., "1", "seconds").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

// StartTimer returns a function that, when called, records the elapsed
// time since StartTimer was called into h, in seconds. Used to time a
// single task attempt without threading time.Now() through the caller:
//
//	stop := metrics.StartTimer(execDuration)
//	defer stop()
func StartTimer(h Histogram) func() {
	start := time.Now()
	return func() {
		h.Record(time.Since(start).Seconds())
	}
}
