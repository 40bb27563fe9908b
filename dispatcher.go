package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/kodeflow-dev/taskscheduler/metrics"
	"github.com/kodeflow-dev/taskscheduler/task"
)

// workerLoop is one of cfg.MaxWorkers fixed goroutines. It waits on cond
// for work, performs one dispatch step under mu, then executes outside
// mu and feeds the outcome back through resultProcess. Adapted from the
// teacher's dispatcher.go/worker.go pair: the teacher dispatched generic
// Task[R] closures off a channel onto a worker pool; here the "channel"
// is the priority heap itself and dispatch is priority-aware.
func (s *Scheduler) workerLoop() {
	defer s.workers.Done()
	for {
		s.mu.Lock()
		var t *task.Task
		for {
			if s.closed {
				s.mu.Unlock()
				return
			}
			t = s.dispatchLocked()
			if t != nil {
				break
			}
			s.cond.Wait()
		}
		s.mu.Unlock()

		s.inflight.Add(1)
		s.metricActive.Add(1)
		s.runAttempt(t)
		s.metricActive.Add(-1)
		s.inflight.Done()
	}
}

// dispatchLocked performs one atomic dispatch step (§4.5.2). Callers
// must hold s.mu. It folds repeated cancelled-entry drops into a single
// call: each drop is a self-contained no-op step, so retrying inline
// here rather than forcing a fresh run-request round-trip is equivalent
// but avoids spurious idle wakes.
func (s *Scheduler) dispatchLocked() *task.Task {
	for {
		if s.heap.Len() == 0 {
			return nil
		}
		t := s.heap.PopHighest()
		if t == nil {
			return nil
		}
		if t.Status() == task.Cancelled {
			continue
		}

		if nextPriority, ok := s.heap.PeekHighestPriority(); ok && nextPriority < t.Priority() {
			s.heap.Push(t)
			return nil
		}

		if err := t.AtomicSetStatus(task.Running, true); err != nil {
			// Lost a race with an external cancel between pop and here;
			// drop and keep looking.
			continue
		}
		s.active[t.ID()] = t
		s.metricDispatched.Add(1)
		return t
	}
}

// runAttempt executes t outside the scheduler lock (§4.5.3) and routes
// the outcome to resultProcess.
func (s *Scheduler) runAttempt(t *task.Task) {
	if waitStart, ok := t.QueueStartedAt(); ok {
		s.metricQueueWait.Record(time.Since(waitStart).Seconds())
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if d, ok := t.ExecutionTimeout(); ok {
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	cc := task.NewComputeContext(ctx, t)

	stop := metrics.StartTimer(s.metricExecDur)
	result, err := func() (res any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("executor panicked: %v", r)
			}
		}()
		return t.Executor().ExecuteTask(cc, t)
	}()
	stop()

	if err == nil && ctx.Err() == context.DeadlineExceeded {
		limit, _ := t.ExecutionTimeout()
		err = task.NewTimeoutError(t.ID(), limit.Seconds())
	}
	if err != nil {
		err = task.NewExecutorError(err, t.ID(), t.RetryCount())
	}

	s.resultProcess(t, result, err)
}

// resultProcess re-acquires the scheduler lock and applies §4.5.4's
// outcome rules, then performs cleanup (§4.5.5).
func (s *Scheduler) resultProcess(t *task.Task, result any, execErr error) {
	s.mu.Lock()

	if t.Status() == task.Cancelled {
		// Cancelled mid-flight: drop the outcome silently, no
		// Completed/Failed transition.
		delete(s.active, t.ID())
		s.mu.Unlock()
		return
	}

	if execErr == nil {
		if t.Snapshot().Progress < 1.0 {
			t.UpdateProgress(1.0)
		}
		_ = t.MarkCompleted()
		delete(s.active, t.ID())
		s.completed[t.ID()] = t
		s.mu.Unlock()
		return
	}

	_ = t.MarkFailed(execErr.Error())
	delete(s.active, t.ID())

	if t.RetryCount() < s.cfg.RetryCap {
		t.IncrementRetry()
		_ = t.AtomicSetStatus(task.Queued, true)
		t.MarkQueued()
		s.metricRetried.Add(1)
		s.heap.Push(t)
		s.cond.Broadcast()
		s.mu.Unlock()
		return
	}

	s.metricFailed.Add(1)
	s.cfg.Logger.Error("task failed permanently", "task", t.ID(), "error", execErr)
	s.mu.Unlock()
}
