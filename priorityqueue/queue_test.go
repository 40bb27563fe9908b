package priorityqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodeflow-dev/taskscheduler/task"
)

func newTask(t *testing.T, title string, p task.Priority) *task.Task {
	t.Helper()
	tk, err := task.New(task.Params{Title: title, Priority: p, HasPriority: true})
	require.NoError(t, err)
	return tk
}

func TestPushPopHighestPriorityFirst(t *testing.T) {
	q := New(nil)
	low := newTask(t, "low", task.Low)
	high := newTask(t, "high", task.High)
	critical := newTask(t, "critical", task.Critical)

	q.Push(low)
	q.Push(high)
	q.Push(critical)

	assert.Equal(t, critical.ID(), q.PopHighest().ID())
	assert.Equal(t, high.ID(), q.PopHighest().ID())
	assert.Equal(t, low.ID(), q.PopHighest().ID())
	assert.Nil(t, q.PopHighest())
}

func TestFIFOTiebreakOnEqualPriority(t *testing.T) {
	q := New(nil)
	first := newTask(t, "first", task.Normal)
	second := newTask(t, "second", task.Normal)

	q.Push(first)
	q.Push(second)

	assert.Equal(t, first.ID(), q.PopHighest().ID())
	assert.Equal(t, second.ID(), q.PopHighest().ID())
}

func TestRemoveByID(t *testing.T) {
	q := New(nil)
	a := newTask(t, "a", task.Normal)
	b := newTask(t, "b", task.Normal)
	q.Push(a)
	q.Push(b)

	assert.True(t, q.RemoveByID(a.ID()))
	assert.False(t, q.Contains(a.ID()))
	assert.False(t, q.RemoveByID(a.ID()))
	assert.Equal(t, 1, q.Len())
}

func TestOnMutateCalledOnPushPopRemove(t *testing.T) {
	var calls int
	q := New(func() { calls++ })
	a := newTask(t, "a", task.Normal)

	q.Push(a)
	assert.Equal(t, 1, calls)

	q.PopHighest()
	assert.Equal(t, 2, calls)

	q.Push(a)
	q.RemoveByID(a.ID())
	assert.Equal(t, 4, calls)
}

func TestOrderedSnapshotDoesNotMutateQueue(t *testing.T) {
	q := New(nil)
	a := newTask(t, "a", task.High)
	b := newTask(t, "b", task.Low)
	q.Push(a)
	q.Push(b)

	ordered := q.OrderedSnapshot()
	require.Len(t, ordered, 2)
	assert.Equal(t, a.ID(), ordered[0].ID())
	assert.Equal(t, b.ID(), ordered[1].ID())

	assert.Equal(t, 2, q.Len(), "OrderedSnapshot must not drain the real queue")
	assert.Equal(t, a.ID(), q.PopHighest().ID())
}

func TestPeekHighestPriority(t *testing.T) {
	q := New(nil)
	_, ok := q.PeekHighestPriority()
	assert.False(t, ok)

	q.Push(newTask(t, "a", task.High))
	p, ok := q.PeekHighestPriority()
	require.True(t, ok)
	assert.Equal(t, task.High, p)
}
