package scheduler

import (
	"fmt"
	"time"

	"github.com/kodeflow-dev/taskscheduler/task"
)

// scanLoop is the timeout scanner (§4.6): a single background goroutine
// waking at cfg.QueueScanInterval, failing any task that has spent
// longer than its queue_timeout sitting QUEUED. Execution timeout is
// NOT handled here; it is enforced per-attempt by runAttempt, since only
// the worker holds the attempt's deadline context.
func (s *Scheduler) scanLoop() {
	ticker := time.NewTicker(s.cfg.QueueScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.scannerStop:
			return
		case <-ticker.C:
			s.scanOnce()
		}
	}
}

// scanOnce walks the heap once, timing out any entry whose queue_timeout
// has elapsed. Errors from MarkFailed are logged and otherwise
// ignored (§7: "timeout-scanner errors are logged; the scanner
// continues").
func (s *Scheduler) scanOnce() {
	now := time.Now().UTC()

	s.mu.Lock()
	candidates := s.heap.Snapshot()
	var expired []*task.Task
	for _, t := range candidates {
		limit, ok := t.QueueTimeout()
		if !ok {
			continue
		}
		startedAt, ok := t.QueueStartedAt()
		if !ok {
			continue
		}
		if now.Sub(startedAt) > limit {
			expired = append(expired, t)
		}
	}

	for _, t := range expired {
		if !s.heap.RemoveByID(t.ID()) {
			continue
		}
		reason := fmt.Sprintf("queue-wait timeout: %.0fs", mustQueueTimeout(t).Seconds())
		t.SetTimeoutReason(reason)
		if err := t.MarkFailed(reason); err != nil {
			s.cfg.Logger.Error("timeout scanner: transition failed", "task", t.ID(), "error", err)
		}
	}
	s.mu.Unlock()
}

func mustQueueTimeout(t *task.Task) time.Duration {
	d, _ := t.QueueTimeout()
	return d
}
