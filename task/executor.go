package task

import (
	"context"
	"time"
)

// ComputeContext is the per-attempt handle an Executor uses to cooperate
// with cancellation and deadlines. It is created fresh for each RUNNING
// attempt and discarded when the attempt returns; Task keeps no retained
// back-pointer to it (see SPEC_FULL.md "cyclic references" design note).
type ComputeContext interface {
	// Context carries the attempt's deadline (execution_timeout, if set)
	// and is cancelled when the scheduler gives up on this attempt.
	Context() context.Context

	// Cancelled reports whether the owning task has been marked Cancelled
	// since this attempt started. Executors should poll it between units
	// of work and return promptly once it is true.
	Cancelled() bool
}

type computeContext struct {
	ctx context.Context
	t   *Task
}

func (c *computeContext) Context() context.Context { return c.ctx }

func (c *computeContext) Cancelled() bool { return c.t.Status() == Cancelled }

// NewComputeContext builds the ComputeContext handle for one execution
// attempt of t, scoped to ctx. Callers (the scheduler's worker loop)
// create one per attempt and discard it when the attempt returns.
func NewComputeContext(ctx context.Context, t *Task) ComputeContext {
	return &computeContext{ctx: ctx, t: t}
}

// Executor performs the actual work of a Task. Implementations should:
//   - poll ComputeContext.Cancelled (or ctx.Done()) and return promptly once
//     cancellation is observed, with a truthful partial result;
//   - call t.UpdateProgress at reasonable granularity;
//   - return before the attempt's deadline, or tolerate the worker aborting
//     the attempt via ctx.Done() once it fires.
type Executor interface {
	ExecuteTask(cc ComputeContext, t *Task) (any, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(cc ComputeContext, t *Task) (any, error)

func (f ExecutorFunc) ExecuteTask(cc ComputeContext, t *Task) (any, error) {
	return f(cc, t)
}

// defaultStepCount and defaultStepDuration reproduce the reference
// no-op executor: 10 equal steps of 0.2s each, reporting progress after
// every step and returning early on cancellation.
const (
	defaultStepCount    = 10
	defaultStepDuration = 200 * time.Millisecond
)

// DefaultExecutor simulates work in defaultStepCount equal steps, updating
// progress between steps and honoring cooperative cancellation. It is used
// whenever a Task has no executor of its own.
var DefaultExecutor Executor = ExecutorFunc(func(cc ComputeContext, t *Task) (any, error) {
	for i := 0; i < defaultStepCount; i++ {
		select {
		case <-cc.Context().Done():
			return nil, cc.Context().Err()
		case <-time.After(defaultStepDuration):
		}
		if cc.Cancelled() {
			return nil, nil
		}
		t.UpdateProgress(float64(i+1) / float64(defaultStepCount))
	}
	return nil, nil
})
