package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodeflow-dev/taskscheduler/task"
)

type fakeSource struct {
	tasks []*task.Task
}

func (f *fakeSource) OrderedSnapshot() []*task.Task { return f.tasks }

func newTask(t *testing.T) *task.Task {
	t.Helper()
	tk, err := task.New(task.Params{Title: "t"})
	require.NoError(t, err)
	return tk
}

func TestPositionComputesOneBasedIndex(t *testing.T) {
	a, b, c := newTask(t), newTask(t), newTask(t)
	src := &fakeSource{tasks: []*task.Task{a, b, c}}
	svc := New(src, time.Hour)

	pos, total := svc.Position(b.ID())
	require.NotNil(t, pos)
	assert.Equal(t, 2, *pos)
	assert.Equal(t, 3, total)
}

func TestPositionUnknownIDReturnsNilButTotal(t *testing.T) {
	a := newTask(t)
	src := &fakeSource{tasks: []*task.Task{a}}
	svc := New(src, time.Hour)

	pos, total := svc.Position("unknown")
	assert.Nil(t, pos)
	assert.Equal(t, 1, total)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	a := newTask(t)
	src := &fakeSource{tasks: []*task.Task{a}}
	svc := New(src, time.Hour)

	_, total := svc.Position(a.ID())
	assert.Equal(t, 1, total)

	b := newTask(t)
	src.tasks = append(src.tasks, b)
	svc.Invalidate()

	_, total = svc.Position(b.ID())
	assert.Equal(t, 2, total)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	a := newTask(t)
	src := &fakeSource{tasks: []*task.Task{a}}
	svc := New(src, 10*time.Millisecond)

	svc.Position(a.ID())
	assert.True(t, svc.CacheValid())

	time.Sleep(20 * time.Millisecond)
	assert.False(t, svc.CacheValid())

	b := newTask(t)
	src.tasks = append(src.tasks, b)
	_, total := svc.Position(b.ID())
	assert.Equal(t, 2, total)
}

func TestNewUsesDefaultTTLForZero(t *testing.T) {
	svc := New(&fakeSource{}, 0)
	assert.Equal(t, DefaultTTL, svc.ttl)
}
