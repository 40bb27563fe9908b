package task

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxTitleLen is the maximum length of Task.Title.
	MaxTitleLen = 100
	// MaxDescriptionLen is the maximum length of Task.Description.
	MaxDescriptionLen = 500
	// MaxRetries equals the scheduler's default automatic-retry cap. The
	// scheduler applies its own Config.RetryCap, not this constant.
	MaxRetries = 3
)

// Publisher is the minimal event-emission contract Task needs. It is
// satisfied by *eventbus.Bus without task importing eventbus, avoiding an
// import cycle between the two packages (eventbus payloads reference Task,
// so the dependency can only run one way).
type Publisher interface {
	Publish(eventType string, payload map[string]any, async bool) int
}

// Event type identifiers, shared with the eventbus package by name.
const (
	EventCreated        = "task_created"
	EventStatusChanged  = "task_status_changed"
	EventProgress       = "task_progress"
	EventCompleted      = "task_completed"
	EventFailed         = "task_failed"
	EventCancelled      = "task_cancelled"
)

// Task is the unit of scheduled work. All field mutation happens through
// its exported methods, which hold mu for the duration of the change. The
// corresponding event is published right after mu is released, so another
// goroutine can observe a new status before its event has been published.
type Task struct {
	mu sync.Mutex

	id          string
	title       string
	description string
	status      Status
	priority    Priority
	progress    float64

	queuePosition *int
	queueTotal    int

	createdAt time.Time
	updatedAt time.Time

	queueStartedAt *time.Time
	queueTimeout   *time.Duration

	executionTimeout *time.Duration
	timeoutReason    string

	retryCount int

	executor Executor
	bus      Publisher
}

// Params configures a new Task. Title and Description are validated
// against MaxTitleLen/MaxDescriptionLen. Priority is used only when
// HasPriority is true; otherwise the task gets Normal, so requesting
// Critical (the zero value) needs HasPriority set.
type Params struct {
	Title            string
	Description      string
	Priority         Priority
	HasPriority      bool // distinguishes "Critical explicitly requested" from "omitted"
	QueueTimeout     time.Duration // 0 means unset
	ExecutionTimeout time.Duration // 0 means unset
	Executor         Executor
}

// New creates a Task in the Pending state with a fresh globally-unique id.
// It returns InvalidInputError if Title or Description exceed their limits.
func New(p Params) (*Task, error) {
	if len(p.Title) > MaxTitleLen {
		return nil, NewInvalidInput("title", "exceeds 100 characters")
	}
	if len(p.Description) > MaxDescriptionLen {
		return nil, NewInvalidInput("description", "exceeds 500 characters")
	}

	priority := Normal
	if p.HasPriority {
		priority = p.Priority
	}

	now := time.Now().UTC()
	t := &Task{
		id:          uuid.New().String(),
		title:       p.Title,
		description: p.Description,
		status:      Pending,
		priority:    priority,
		createdAt:   now,
		updatedAt:   now,
		executor:    p.Executor,
	}
	if p.QueueTimeout > 0 {
		qt := p.QueueTimeout
		t.queueTimeout = &qt
	}
	if p.ExecutionTimeout > 0 {
		et := p.ExecutionTimeout
		t.executionTimeout = &et
	}
	if t.executor == nil {
		t.executor = DefaultExecutor
	}
	return t, nil
}

// BindPublisher attaches the event sink a Task publishes transition and
// progress events to. Called once by the scheduler before the task is
// ever enqueued; nil-safe no-op publish if never bound (useful in tests
// that only exercise the state machine).
func (t *Task) BindPublisher(bus Publisher) {
	t.mu.Lock()
	t.bus = bus
	t.mu.Unlock()
}

func (t *Task) publish(eventType string, payload map[string]any) {
	if t.bus == nil {
		return
	}
	t.bus.Publish(eventType, payload, true)
}

// ID returns the task's globally unique identifier.
func (t *Task) ID() string { return t.id }

// Status returns the current status under the task's own lock.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// SetExecutor replaces the task's executor. Only meaningful before the
// task is dispatched; the scheduler reads it once per attempt.
func (t *Task) SetExecutor(e Executor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e == nil {
		e = DefaultExecutor
	}
	t.executor = e
}

func (t *Task) Executor() Executor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.executor
}

// Priority returns the task's scheduling priority.
func (t *Task) Priority() Priority {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.priority
}

// QueueTimeout returns the configured queue-wait timeout, if any.
func (t *Task) QueueTimeout() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.queueTimeout == nil {
		return 0, false
	}
	return *t.queueTimeout, true
}

// ExecutionTimeout returns the configured per-attempt execution deadline,
// if any.
func (t *Task) ExecutionTimeout() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.executionTimeout == nil {
		return 0, false
	}
	return *t.executionTimeout, true
}

// QueueStartedAt returns when the task most recently entered Queued.
func (t *Task) QueueStartedAt() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.queueStartedAt == nil {
		return time.Time{}, false
	}
	return *t.queueStartedAt, true
}

// RetryCount returns the number of automatic retries performed so far.
func (t *Task) RetryCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.retryCount
}

// Snapshot is an immutable, lock-free copy of a Task's fields, suitable for
// handing to read-only observers (position service, serializers) without
// holding the task's lock past the copy.
type Snapshot struct {
	ID            string
	Title         string
	Description   string
	Status        Status
	Priority      Priority
	Progress      float64
	QueuePosition *int
	QueueTotal    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	TimeoutReason string
	RetryCount    int
}

// Snapshot copies out the task's fields under its lock.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	var qp *int
	if t.queuePosition != nil {
		v := *t.queuePosition
		qp = &v
	}
	return Snapshot{
		ID:            t.id,
		Title:         t.title,
		Description:   t.description,
		Status:        t.status,
		Priority:      t.priority,
		Progress:      t.progress,
		QueuePosition: qp,
		QueueTotal:    t.queueTotal,
		CreatedAt:     t.createdAt,
		UpdatedAt:     t.updatedAt,
		TimeoutReason: t.timeoutReason,
		RetryCount:    t.retryCount,
	}
}

// SetQueuePosition is called by the position service to annotate the task
// with its last-computed advisory position hint. Not itself a state
// transition and never published as an event.
func (t *Task) SetQueuePosition(pos *int, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queuePosition = pos
	t.queueTotal = total
}

// MarkQueued records queue_started_at. Called by the scheduler under its
// own lock, immediately before/after the AtomicSetStatus(Queued) call.
func (t *Task) MarkQueued() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now().UTC()
	t.queueStartedAt = &now
}

// SetTimeoutReason records a human-readable explanation for a
// timeout-induced failure. Called by the scheduler/timeout scanner.
func (t *Task) SetTimeoutReason(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeoutReason = reason
}

// IncrementRetry bumps the automatic-retry counter. Only the scheduler's
// result-processing path calls this (§4.5.4); RetryFailed (user-initiated)
// deliberately does not.
func (t *Task) IncrementRetry() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retryCount++
}

// AtomicSetStatus changes a task's status. It validates the transition
// against the matrix in status.go (unless validate is false, reserved for
// internal bootstrap paths) and updates updated_at while holding the
// task's lock, then publishes task_status_changed after releasing it.
// Cancel, MarkCompleted, MarkFailed and RetryFailed set the status
// themselves, under the same transition rules, rather than calling this.
func (t *Task) AtomicSetStatus(next Status, validate bool) error {
	t.mu.Lock()
	from := t.status
	if validate && !allowed(from, next) {
		t.mu.Unlock()
		return NewInvalidTransition(t.id, from, next)
	}
	t.status = next
	t.updatedAt = time.Now().UTC()
	snapshot := t.status
	updatedAt := t.updatedAt
	bus := t.bus
	id := t.id
	t.mu.Unlock()

	if bus == nil {
		return nil
	}
	bus.Publish(EventStatusChanged, map[string]any{
		"task":       id,
		"old_status": from,
		"new_status": snapshot,
		"timestamp":  updatedAt,
	}, true)
	return nil
}

// UpdateProgress clamps p to [0,1], bumps updated_at, and publishes
// task_progress with the old and new values.
func (t *Task) UpdateProgress(p float64) {
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}

	t.mu.Lock()
	old := t.progress
	t.progress = p
	t.updatedAt = time.Now().UTC()
	id := t.id
	bus := t.bus
	t.mu.Unlock()

	if bus == nil {
		return
	}
	bus.Publish(EventProgress, map[string]any{
		"task":      id,
		"old_value": old,
		"new_value": p,
		"timestamp": time.Now().UTC(),
	}, true)
}

// Cancel requests cancellation. It is rejected (returns false, no error)
// if the task is already Completed or Cancelled, or any other terminal
// state; otherwise it transitions to Cancelled and publishes
// task_cancelled. Always safe, always returns quickly.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	from := t.status
	if !allowed(from, Cancelled) {
		t.mu.Unlock()
		return false
	}
	t.status = Cancelled
	t.updatedAt = time.Now().UTC()
	id := t.id
	bus := t.bus
	t.mu.Unlock()

	if bus != nil {
		bus.Publish(EventStatusChanged, map[string]any{
			"task": id, "old_status": from, "new_status": Cancelled, "timestamp": time.Now().UTC(),
		}, true)
		bus.Publish(EventCancelled, map[string]any{
			"task": id, "timestamp": time.Now().UTC(),
		}, true)
	}
	return true
}

// MarkCompleted transitions RUNNING→COMPLETED, publishing both
// task_status_changed and the dedicated task_completed event as one step
// (§4.1, §4.5.4). Only the scheduler's result-processing path calls this.
func (t *Task) MarkCompleted() error {
	t.mu.Lock()
	from := t.status
	if !allowed(from, Completed) {
		t.mu.Unlock()
		return NewInvalidTransition(t.id, from, Completed)
	}
	t.status = Completed
	t.updatedAt = time.Now().UTC()
	id := t.id
	bus := t.bus
	t.mu.Unlock()

	if bus != nil {
		bus.Publish(EventStatusChanged, map[string]any{
			"task": id, "old_status": from, "new_status": Completed, "timestamp": time.Now().UTC(),
		}, true)
		bus.Publish(EventCompleted, map[string]any{
			"task": id, "timestamp": time.Now().UTC(),
		}, true)
	}
	return nil
}

// MarkFailed transitions the task to FAILED, publishing both
// task_status_changed and the dedicated task_failed event as one step
// (§4.1, §4.5.4/§4.6). reason is carried in the task_failed payload; it
// is independent of SetTimeoutReason, which annotates the task itself.
func (t *Task) MarkFailed(reason string) error {
	t.mu.Lock()
	from := t.status
	if !allowed(from, Failed) {
		t.mu.Unlock()
		return NewInvalidTransition(t.id, from, Failed)
	}
	t.status = Failed
	t.updatedAt = time.Now().UTC()
	id := t.id
	bus := t.bus
	t.mu.Unlock()

	if bus != nil {
		bus.Publish(EventStatusChanged, map[string]any{
			"task": id, "old_status": from, "new_status": Failed, "timestamp": time.Now().UTC(),
		}, true)
		bus.Publish(EventFailed, map[string]any{
			"task": id, "reason": reason, "timestamp": time.Now().UTC(),
		}, true)
	}
	return nil
}

// RetryFailed is the user-initiated retry: rejected unless the task is
// currently Failed; otherwise transitions to Queued and publishes
// task_status_changed with is_retry=true. Unlike the scheduler's
// automatic retry path, this does not increment retry_count
// (SPEC_FULL.md "Retry counter ambiguity").
func (t *Task) RetryFailed() bool {
	t.mu.Lock()
	if t.status != Failed {
		t.mu.Unlock()
		return false
	}
	t.status = Queued
	t.updatedAt = time.Now().UTC()
	id := t.id
	bus := t.bus
	t.mu.Unlock()

	if bus != nil {
		bus.Publish(EventStatusChanged, map[string]any{
			"task": id, "old_status": Failed, "new_status": Queued,
			"is_retry": true, "timestamp": time.Now().UTC(),
		}, true)
	}
	return true
}
