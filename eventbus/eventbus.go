// Package eventbus implements the scheduler's thread-safe pub/sub event
// bus (§4.1): per-event-type subscriber lists, synchronous or asynchronous
// dispatch, and exception isolation between subscribers.
//
// Async dispatch goroutines are bounded by a small buffered-channel
// semaphore (§4.1: "a small internal pool, default 4") rather than a
// dedicated goroutine pool: each dispatch is a single callback invocation
// with no state to recycle between calls, so acquiring and releasing a
// token is the whole of what a pool would otherwise do here.
package eventbus

import (
	"log/slog"
	"sync"
	"time"
	"unsafe"
)

// Predefined event type identifiers (§4.1).
const (
	TaskCreated       = "task_created"
	TaskStatusChanged = "task_status_changed"
	TaskProgress      = "task_progress"
	TaskCompleted     = "task_completed"
	TaskFailed        = "task_failed"
	TaskCancelled     = "task_cancelled"
)

// Payload is the key/value record delivered to subscribers. It always
// carries at least "task" and "timestamp"; the remaining keys vary by
// event type (see the task package's publish call sites).
type Payload map[string]any

// Callback is a subscriber function. Panics inside a Callback are
// recovered and logged; they never affect sibling subscribers or the
// publisher (§4.1's exception-isolation contract).
type Callback func(eventType string, payload Payload)

// DefaultDispatchWorkers bounds how many async dispatch goroutines may run
// at once (§6).
const DefaultDispatchWorkers = 4

// Bus is a thread-safe, per-event-type pub/sub dispatcher.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string][]subscription
	dispatchSem chan struct{}
	logger      *slog.Logger

	closed   bool
	inflight sync.WaitGroup
}

type subscription struct {
	// id is the handle returned by Subscribe, used for
	// Unsubscribe-by-reference. Go cannot compare func values with ==,
	// so callers pass this handle to Unsubscribe; Subscribe recognizes a
	// repeated callback by the func value's underlying pointer.
	id *Callback
	cb Callback
}

// Option configures a Bus.
type Option func(*Bus)

// WithDispatchWorkers overrides the number of async dispatches allowed to
// run concurrently (default DefaultDispatchWorkers).
func WithDispatchWorkers(n int) Option {
	return func(b *Bus) {
		if n <= 0 {
			n = DefaultDispatchWorkers
		}
		b.dispatchSem = make(chan struct{}, n)
	}
}

// WithLogger overrides the logger used to report recovered subscriber
// panics. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// New creates an empty Bus with a default-sized async dispatch bound.
func New(opts ...Option) *Bus {
	b := &Bus{
		subscribers: make(map[string][]subscription),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.dispatchSem == nil {
		b.dispatchSem = make(chan struct{}, DefaultDispatchWorkers)
	}
	return b
}

// Subscribe registers cb for eventType and returns a handle usable with
// Unsubscribe. Subscribing the same callback value twice for the same
// type is a no-op (idempotent) that returns the existing handle, matching
// §4.1.
func (b *Bus) Subscribe(eventType string, cb Callback) *Callback {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := *(*unsafe.Pointer)(unsafe.Pointer(&cb))
	for _, s := range b.subscribers[eventType] {
		if *(*unsafe.Pointer)(unsafe.Pointer(&s.cb)) == key {
			return s.id
		}
	}
	handle := new(Callback)
	*handle = cb
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: handle, cb: cb})
	return handle
}

// Unsubscribe removes the subscription identified by handle (as returned
// by Subscribe) from eventType. Returns whether anything was removed.
func (b *Bus) Unsubscribe(eventType string, handle *Callback) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[eventType]
	for i, s := range subs {
		if s.id == handle {
			b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers payload to every subscriber of eventType and returns
// the subscriber count observed at publish time. In async mode (the
// default), a snapshot of subscribers is taken under a short lock and
// each callback runs on a dispatch-pool goroutine; ordering across
// publishes is not guaranteed. In sync mode, callbacks run inline, in
// registration order, on the caller's goroutine.
func (b *Bus) Publish(eventType string, payload map[string]any, async bool) int {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0
	}
	subs := make([]subscription, len(b.subscribers[eventType]))
	copy(subs, b.subscribers[eventType])
	b.mu.Unlock()

	if payload == nil {
		payload = map[string]any{}
	}
	if _, ok := payload["timestamp"]; !ok {
		payload["timestamp"] = time.Now().UTC()
	}

	if !async {
		for _, s := range subs {
			b.invoke(s.cb, eventType, payload)
		}
		return len(subs)
	}

	for _, s := range subs {
		cb := s.cb
		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			b.dispatchSem <- struct{}{}
			defer func() { <-b.dispatchSem }()
			b.invoke(cb, eventType, payload)
		}()
	}
	return len(subs)
}

// invoke runs cb, recovering and logging any panic so it can never take
// down the publisher or a sibling subscriber.
func (b *Bus) invoke(cb Callback, eventType string, payload Payload) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("eventbus: subscriber panicked",
				"event_type", eventType, "panic", r)
		}
	}()
	cb(eventType, payload)
}

// Clear removes subscribers for eventType, or every event type if
// eventType is "".
func (b *Bus) Clear(eventType string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if eventType == "" {
		b.subscribers = make(map[string][]subscription)
		return
	}
	delete(b.subscribers, eventType)
}

// SubscriberCount returns the number of subscribers currently registered
// for eventType.
func (b *Bus) SubscriberCount(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[eventType])
}

// Shutdown marks the bus closed, rejecting further Publish calls. If
// waitForInflight is true it blocks until all in-flight async dispatches
// have completed.
func (b *Bus) Shutdown(waitForInflight bool) {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	if waitForInflight {
		b.inflight.Wait()
	}
}
