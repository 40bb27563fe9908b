// Package priorityqueue implements the indexed min-heap the scheduler uses
// to order queued tasks by priority, with O(1) id-based locate/remove.
//
// It is grounded on the heap.Interface-over-a-priority-ordered-slice
// pattern used throughout the retrieval pack (e.g. the CodeValdCortex
// task scheduler's priorityQueue type), generalized with an id->index
// map so Remove(id) and Contains(id) don't need a linear scan.
package priorityqueue

import (
	"container/heap"
	"sync"

	"github.com/kodeflow-dev/taskscheduler/task"
)

// Entry is one element of the queue: a task plus the monotonic sequence
// number assigned at push time, used to break priority ties in FIFO order
// when the underlying heap implementation is not otherwise stable.
type Entry struct {
	Task     *task.Task
	Priority task.Priority
	seq      uint64
	index    int // position in the backing slice; maintained by heap callbacks
}

// innerHeap implements heap.Interface. Not exported: all access goes
// through Queue, which also maintains the id index under its lock.
type innerHeap []*Entry

func (h innerHeap) Len() int { return len(h) }

func (h innerHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority // smaller value = higher priority
	}
	return h[i].seq < h[j].seq // FIFO tie-break
}

func (h innerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *innerHeap) Push(x any) {
	e := x.(*Entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *innerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Queue is a thread-safe indexed min-heap keyed by task priority.
type Queue struct {
	mu      sync.Mutex
	heap    innerHeap
	index   map[string]*Entry
	nextSeq uint64

	onMutate func() // invoked after every structural change, under the lock release
}

// New creates an empty Queue. onMutate, if non-nil, is called (outside the
// internal lock) after every Push/Pop/Remove — the scheduler wires this to
// the position service's cache invalidation (§4.3).
func New(onMutate func()) *Queue {
	q := &Queue{
		index:    make(map[string]*Entry),
		onMutate: onMutate,
	}
	heap.Init(&q.heap)
	return q
}

func (q *Queue) notify() {
	if q.onMutate != nil {
		q.onMutate()
	}
}

// Push inserts t keyed by its current priority. O(log n).
func (q *Queue) Push(t *task.Task) {
	q.mu.Lock()
	e := &Entry{Task: t, Priority: t.Priority(), seq: q.nextSeq}
	q.nextSeq++
	heap.Push(&q.heap, e)
	q.index[t.ID()] = e
	q.mu.Unlock()
	q.notify()
}

// PopHighest removes and returns the minimum-priority entry's task, or nil
// if the queue is empty. O(log n).
func (q *Queue) PopHighest() *task.Task {
	q.mu.Lock()
	if q.heap.Len() == 0 {
		q.mu.Unlock()
		return nil
	}
	e := heap.Pop(&q.heap).(*Entry)
	delete(q.index, e.Task.ID())
	q.mu.Unlock()
	q.notify()
	return e.Task
}

// PeekHighestPriority returns the priority at the root of the heap and
// whether the heap is non-empty. O(1).
func (q *Queue) PeekHighestPriority() (task.Priority, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.heap.Len() == 0 {
		return 0, false
	}
	return q.heap[0].Priority, true
}

// RemoveByID removes an arbitrary entry by task id and re-heapifies.
// Returns false if id is not present. O(log n): the id index locates the
// entry and heap.Remove re-heapifies from its slot.
func (q *Queue) RemoveByID(id string) bool {
	q.mu.Lock()
	e, ok := q.index[id]
	if !ok {
		q.mu.Unlock()
		return false
	}
	heap.Remove(&q.heap, e.index)
	delete(q.index, id)
	q.mu.Unlock()
	q.notify()
	return true
}

// Contains reports whether id currently has an entry in the heap. O(1).
func (q *Queue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.index[id]
	return ok
}

// Len returns the number of entries currently in the heap.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// Snapshot returns tasks in heap (array) order — NOT sorted priority
// order beyond the root — for callers that need to walk every entry
// (the timeout scanner, and the scheduler's CancelTask and GetStatus).
// The slice is a copy;
// mutating it does not affect the queue.
func (q *Queue) Snapshot() []*task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*task.Task, len(q.heap))
	for i, e := range q.heap {
		out[i] = e.Task
	}
	return out
}

// OrderedSnapshot returns tasks in strict dispatch order (the order
// PopHighest would remove them in), used by the position service to
// assign 1-based positions. It does not mutate the queue: it clones the
// heap's backing slice and pops from the clone.
func (q *Queue) OrderedSnapshot() []*task.Task {
	q.mu.Lock()
	clone := make(innerHeap, len(q.heap))
	for i, e := range q.heap {
		ce := *e
		clone[i] = &ce
	}
	q.mu.Unlock()

	heap.Init(&clone)
	out := make([]*task.Task, 0, len(clone))
	for clone.Len() > 0 {
		e := heap.Pop(&clone).(*Entry)
		out = append(out, e.Task)
	}
	return out
}
