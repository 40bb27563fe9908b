package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/kodeflow-dev/taskscheduler/eventbus"
	"github.com/kodeflow-dev/taskscheduler/metrics"
	"github.com/kodeflow-dev/taskscheduler/position"
	"github.com/kodeflow-dev/taskscheduler/priorityqueue"
	"github.com/kodeflow-dev/taskscheduler/task"
)

// Scheduler coordinates submission, dispatch, execution, retry, and
// cancellation of Tasks over a fixed worker pool (§4.5).
//
// All mutation of the heap, the active set, and the completed map goes
// through mu; dispatch and execution never hold mu across a blocking
// executor call (§5). cond pairs with mu to wake idle workers on
// Enqueue, on automatic retry requeue, and on Close.
type Scheduler struct {
	cfg Config

	mu        sync.Mutex
	cond      *sync.Cond
	heap      *priorityqueue.Queue
	active    map[string]*task.Task
	completed map[string]*task.Task
	closed    bool

	position *position.Service
	bus      *eventbus.Bus

	inflight sync.WaitGroup
	workers  sync.WaitGroup

	scannerStop chan struct{}

	metricDispatched metrics.Counter
	metricRetried    metrics.Counter
	metricFailed     metrics.Counter
	metricActive     metrics.UpDownCounter
	metricQueueWait  metrics.Histogram
	metricExecDur    metrics.Histogram

	lifecycle *lifecycleCoordinator
}

// New creates a Scheduler from an explicit Config. Zero-value fields in
// cfg are filled in from defaultConfig. Prefer NewOptions for new code.
func New(cfg *Config) (*Scheduler, error) {
	merged := defaultConfig()
	if cfg != nil {
		if cfg.MaxWorkers > 0 {
			merged.MaxWorkers = cfg.MaxWorkers
		}
		if cfg.PositionCacheTTL > 0 {
			merged.PositionCacheTTL = cfg.PositionCacheTTL
		}
		if cfg.EventBusWorkers > 0 {
			merged.EventBusWorkers = cfg.EventBusWorkers
		}
		if cfg.QueueScanInterval > 0 {
			merged.QueueScanInterval = cfg.QueueScanInterval
		}
		if cfg.RetryCap > 0 {
			merged.RetryCap = cfg.RetryCap
		}
		if cfg.Logger != nil {
			merged.Logger = cfg.Logger
		}
		if cfg.Metrics != nil {
			merged.Metrics = cfg.Metrics
		}
	}
	if err := validateConfig(&merged); err != nil {
		return nil, err
	}
	return newScheduler(&merged), nil
}

func newScheduler(cfg *Config) *Scheduler {
	s := &Scheduler{
		cfg:         *cfg,
		active:      make(map[string]*task.Task),
		completed:   make(map[string]*task.Task),
		scannerStop: make(chan struct{}),
		bus:         eventbus.New(eventbus.WithDispatchWorkers(cfg.EventBusWorkers), eventbus.WithLogger(cfg.Logger)),
	}
	s.cond = sync.NewCond(&s.mu)
	s.heap = priorityqueue.New(func() {
		if s.position != nil {
			s.position.Invalidate()
		}
	})
	s.position = position.New(s.heap, cfg.PositionCacheTTL)

	s.metricDispatched = cfg.Metrics.Counter("scheduler_dispatched_total", metrics.WithDescription("tasks dispatched to a worker"))
	s.metricRetried = cfg.Metrics.Counter("scheduler_retries_total", metrics.WithDescription("automatic retries performed"))
	s.metricFailed = cfg.Metrics.Counter("scheduler_failed_total", metrics.WithDescription("tasks left terminally failed"))
	s.metricActive = cfg.Metrics.UpDownCounter("scheduler_active_workers", metrics.WithDescription("tasks currently executing"))
	s.metricQueueWait = cfg.Metrics.Histogram("scheduler_queue_wait_seconds", metrics.WithUnit("seconds"))
	s.metricExecDur = cfg.Metrics.Histogram("scheduler_execution_seconds", metrics.WithUnit("seconds"))

	for i := 0; i < cfg.MaxWorkers; i++ {
		s.workers.Add(1)
		go s.workerLoop()
	}
	go s.scanLoop()

	s.lifecycle = newLifecycleCoordinator(
		func() {
			s.mu.Lock()
			s.closed = true
			s.cond.Broadcast()
			s.mu.Unlock()
		},
		s.workers.Wait,
		s.inflight.Wait,
		func() { close(s.scannerStop) },
		func() { s.bus.Shutdown(true) },
	)

	return s
}

// EventBus exposes the scheduler's event bus for direct Subscribe calls.
func (s *Scheduler) EventBus() *eventbus.Bus { return s.bus }

// OnStatusChange registers fn to run whenever any task's status changes,
// a thin typed wrapper over EventBus().Subscribe (SPEC_FULL.md's
// supplemented status-change callback registry).
func (s *Scheduler) OnStatusChange(fn func(taskID string, from, to task.Status)) {
	s.bus.Subscribe(eventbus.TaskStatusChanged, func(_ string, payload eventbus.Payload) {
		id, _ := payload["task"].(string)
		from, _ := payload["old_status"].(task.Status)
		to, _ := payload["new_status"].(task.Status)
		fn(id, from, to)
	})
}

// OnTaskFailed registers fn to run whenever a task transitions to
// Failed, a thin typed wrapper over EventBus().Subscribe against the
// dedicated task_failed event rather than filtering task_status_changed.
func (s *Scheduler) OnTaskFailed(fn func(taskID string)) {
	s.bus.Subscribe(eventbus.TaskFailed, func(_ string, payload eventbus.Payload) {
		id, _ := payload["task"].(string)
		fn(id)
	})
}

// Enqueue submits t for execution (§4.5.1). It requires t currently be
// Pending; otherwise it returns an InvalidTransition error without
// mutating anything. Status transition, queue_started_at, the heap push,
// and the wake broadcast all happen under one critical section, so a
// concurrent CancelTask(t.ID()) can never observe t as Queued yet absent
// from every tracked collection.
func (s *Scheduler) Enqueue(t *task.Task) error {
	t.BindPublisher(s.bus)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if st := t.Status(); st != task.Pending {
		s.mu.Unlock()
		return task.NewInvalidTransition(t.ID(), st, task.Queued)
	}
	if err := t.AtomicSetStatus(task.Queued, true); err != nil {
		s.mu.Unlock()
		return err
	}
	t.MarkQueued()
	s.heap.Push(t)
	s.cond.Broadcast()
	s.mu.Unlock()

	s.bus.Publish(task.EventCreated, map[string]any{
		"task":      t.ID(),
		"timestamp": time.Now().UTC(),
	}, true)
	return nil
}

// CancelTask attempts to cancel id (§4.5.6).
func (s *Scheduler) CancelTask(id string) bool {
	s.mu.Lock()
	if _, ok := s.completed[id]; ok {
		s.mu.Unlock()
		s.cfg.Logger.Warn("cancel requested for already-completed task", "task", id)
		return false
	}
	if s.heap.Contains(id) {
		var found *task.Task
		for _, t := range s.heap.Snapshot() {
			if t.ID() == id {
				found = t
				break
			}
		}
		removed := s.heap.RemoveByID(id)
		s.mu.Unlock()
		if !removed {
			return false
		}
		// The entry is out of the heap; mark it Cancelled for observers.
		// Task guards its own state, so this is safe without the
		// scheduler lock held.
		if found != nil {
			found.Cancel()
		}
		return true
	}
	if t, ok := s.active[id]; ok {
		s.mu.Unlock()
		return t.Cancel()
	}
	s.mu.Unlock()
	return false
}

// GetStatus returns id's current status, if known to this scheduler.
func (s *Scheduler) GetStatus(id string) (task.Status, bool) {
	s.mu.Lock()
	if t, ok := s.active[id]; ok {
		s.mu.Unlock()
		return t.Status(), true
	}
	if t, ok := s.completed[id]; ok {
		s.mu.Unlock()
		return t.Status(), true
	}
	s.mu.Unlock()
	for _, t := range s.heap.Snapshot() {
		if t.ID() == id {
			return t.Status(), true
		}
	}
	return 0, false
}

// GetPosition returns id's 1-based queue position and the queue's total
// size (§4.3). Position is nil if id is not currently queued.
func (s *Scheduler) GetPosition(id string) (*int, int) {
	return s.position.Position(id)
}

// Stats reports the Position Service's stats() snapshot (§4.3): current
// heap/active/completed sizes plus whether the position cache is valid.
func (s *Scheduler) Stats() position.Stats {
	s.mu.Lock()
	heapSize := s.heap.Len()
	activeSize := len(s.active)
	completedSize := len(s.completed)
	s.mu.Unlock()
	return s.position.Stats(heapSize, activeSize, completedSize)
}

// Close shuts the scheduler down (§4.5.7): wakes and stops idle workers,
// waits for in-flight executions to return, stops the timeout scanner,
// and shuts down the event bus. Safe to call more than once.
func (s *Scheduler) Close() {
	s.lifecycle.Close()
}

// Run constructs a Scheduler, calls fn with it, and closes it on return,
// mirroring the teacher's construct/use/auto-close helpers (run_all.go,
// run_stream.go) and the original implementation's async context-manager
// lifecycle (SPEC_FULL.md's supplemented-features section).
func Run(ctx context.Context, cfg *Config, fn func(*Scheduler) error) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	done := make(chan error, 1)
	go func() { done <- fn(s) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
