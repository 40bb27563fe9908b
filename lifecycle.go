package scheduler

import "sync"

// lifecycleCoordinator encapsulates the scheduler's shutdown sequence
// (§4.5.7). It is a wiring helper: it doesn't own the heap or workers,
// it orchestrates stopping, waiting, and closing in a deterministic
// order. Adapted from the teacher's channel-closing coordinator
// (cancel → wait inflight → close channels) to a goroutine-stopping one
// (stop workers → wait inflight → stop scanner → shut down event bus).
//
// Close is safe for concurrent calls; the sequence executes exactly once.
type lifecycleCoordinator struct {
	stopWorkers  func()
	waitWorkers  func()
	waitInflight func()
	stopScanner  func()
	shutdownBus  func()

	once sync.Once
}

func newLifecycleCoordinator(
	stopWorkers func(),
	waitWorkers func(),
	waitInflight func(),
	stopScanner func(),
	shutdownBus func(),
) *lifecycleCoordinator {
	return &lifecycleCoordinator{
		stopWorkers:  stopWorkers,
		waitWorkers:  waitWorkers,
		waitInflight: waitInflight,
		stopScanner:  stopScanner,
		shutdownBus:  shutdownBus,
	}
}

// Close executes the shutdown sequence exactly once:
// 1) mark the scheduler closed and wake idle workers so they exit
// 2) wait for worker goroutines to return
// 3) wait for any still-executing attempt to finish
// 4) stop the timeout scanner
// 5) shut down the event bus, draining in-flight async dispatches
func (lc *lifecycleCoordinator) Close() {
	lc.once.Do(func() {
		if lc.stopWorkers != nil {
			lc.stopWorkers()
		}
		if lc.waitWorkers != nil {
			lc.waitWorkers()
		}
		if lc.waitInflight != nil {
			lc.waitInflight()
		}
		if lc.stopScanner != nil {
			lc.stopScanner()
		}
		if lc.shutdownBus != nil {
			lc.shutdownBus()
		}
	})
}
