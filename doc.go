// Package scheduler provides an in-process priority task scheduler: a
// priority-ordered queue, a bounded worker pool, per-task queue-wait and
// execution timeouts, cooperative cancellation, bounded automatic
// retries, and pub/sub lifecycle events, fronted by a cached
// position-lookup service.
//
// Constructors
//   - New(cfg *Config): stable constructor that accepts a Config.
//     This form is planned for deprecation in a future release.
//   - NewOptions(opts ...Option): options-based constructor. This will
//     become the primary New in the next major version. Prefer this in
//     new code.
//
// Defaults
// Unless overridden, the following defaults apply to a newly created
// Scheduler:
//   - MaxWorkers: 2
//   - PositionCacheTTL: 200ms
//   - EventBusWorkers: 4
//   - QueueScanInterval: 1s
//   - RetryCap: 3
//
// Lifecycle
// Enqueue a task with Enqueue; observe lifecycle events with
// OnStatusChange/OnTaskFailed or by subscribing directly to the
// scheduler's EventBus; call Close to drain in-flight work and stop the
// timeout scanner and event bus. Run wraps construct/use/close into a
// single call for short-lived callers.
package scheduler
