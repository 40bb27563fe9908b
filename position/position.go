// Package position implements the scheduler's cached position-lookup
// service (§4.3): given a task id, report its 1-based position in the
// priority queue and the queue's total size, without re-walking the heap
// on every call.
package position

import (
	"sync"
	"time"

	"github.com/kodeflow-dev/taskscheduler/task"
)

// DefaultTTL is how long a computed position snapshot is served from
// cache before the next request triggers a fresh heap walk.
const DefaultTTL = 200 * time.Millisecond

// Source is the subset of priorityqueue.Queue the service needs: an
// ordered walk of the current entries, in the order they would dequeue.
type Source interface {
	OrderedSnapshot() []*task.Task
}

// Service answers "where am I in the queue?" queries from a short-lived
// cache, recomputed from a Source on expiry.
type Service struct {
	mu     sync.Mutex
	source Source
	ttl    time.Duration

	computedAt time.Time
	positions  map[string]int
	total      int
	valid      bool
}

// New creates a Service reading from source with the given cache TTL. A
// zero ttl uses DefaultTTL.
func New(source Source, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{source: source, ttl: ttl}
}

// Position returns the 1-based position of id and the queue's total size.
// If id is not currently queued, position is nil and total still reflects
// the current queue size.
func (s *Service) Position(id string) (*int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid || time.Since(s.computedAt) >= s.ttl {
		s.recompute()
	}

	if pos, ok := s.positions[id]; ok {
		p := pos
		return &p, s.total
	}
	return nil, s.total
}

// recompute walks the source in dispatch order and rebuilds the cache.
// Must be called with s.mu held.
func (s *Service) recompute() {
	tasks := s.source.OrderedSnapshot()
	positions := make(map[string]int, len(tasks))
	for i, t := range tasks {
		pos := i + 1
		positions[t.ID()] = pos
		t.SetQueuePosition(&pos, len(tasks))
	}
	s.positions = positions
	s.total = len(tasks)
	s.computedAt = time.Now()
	s.valid = true
}

// Invalidate drops the cache; the next Position call recomputes from
// scratch. The priority queue calls this on every enqueue, dequeue, and
// removal (§4.3's invalidation contract). O(1).
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.positions = nil
	s.mu.Unlock()
}

// CacheValid reports whether the current cache (if any) is still within
// its TTL, for Stats reporting. It does not itself trigger a recompute.
func (s *Service) CacheValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid && time.Since(s.computedAt) < s.ttl
}

// Stats summarizes the position service's view of scheduler sizes, per
// §4.3's Position Service stats() operation. heapSize/activeSize/
// completedSize are supplied by the caller (the scheduler, which owns
// those collections); Service only contributes CacheValid.
type Stats struct {
	HeapSize      int
	ActiveSize    int
	CompletedSize int
	CacheValid    bool
}

// Stats assembles a stats() snapshot (§4.3) from sizes the caller owns
// plus this service's own cache-validity state. The scheduler reads the
// current heap/active/completed sizes under its own lock and passes them in.
func (s *Service) Stats(heapSize, activeSize, completedSize int) Stats {
	return Stats{
		HeapSize:      heapSize,
		ActiveSize:    activeSize,
		CompletedSize: completedSize,
		CacheValid:    s.CacheValid(),
	}
}
