package threadpool

import (
	"sync"
)

// lifecycleCoordinator encapsulates the shutdown sequence for a ThreadPool.
// It is a wiring helper: it doesn't own the channel or the workers; it
// orchestrates broadcasting, disconnecting and joining in a deterministic order.
//
// Shutdown() is safe for concurrent calls; the sequence executes exactly once.
type lifecycleCoordinator struct {
	workers      int
	sendSentinel func() error
	disconnect   func()
	join         []func()
	markStopped  func()
	onSendError  func(error)

	once sync.Once
}

func newLifecycleCoordinator(
	workers int,
	sendSentinel func() error,
	disconnect func(),
	join []func(),
	markStopped func(),
	onSendError func(error),
) *lifecycleCoordinator {
	return &lifecycleCoordinator{
		workers:      workers,
		sendSentinel: sendSentinel,
		disconnect:   disconnect,
		join:         join,
		markStopped:  markStopped,
		onSendError:  onSendError,
	}
}

// Shutdown executes the shutdown sequence exactly once:
// 1) send one sentinel per worker, queued behind every pending task
// 2) disconnect the channel so later sends fail and any worker that missed a
//    sentinel still wakes up
// 3) join workers in id order
// 4) mark the pool stopped
func (lc *lifecycleCoordinator) Shutdown() {
	lc.once.Do(func() {
		for i := 0; i < lc.workers; i++ {
			if err := lc.sendSentinel(); err != nil {
				if lc.onSendError != nil {
					lc.onSendError(err)
				}
				break
			}
		}
		if lc.disconnect != nil {
			lc.disconnect()
		}
		for _, j := range lc.join {
			j()
		}
		if lc.markStopped != nil {
			lc.markStopped()
		}
	})
}
