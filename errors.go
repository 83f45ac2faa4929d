package threadpool

import (
	"errors"
	"fmt"
)

const Namespace = "threadpool"

// Error categories. Every error returned by New wraps ErrConstruction and every
// error returned by Execute wraps ErrSubmission, so callers can branch with errors.Is.
var (
	ErrConstruction = errors.New(Namespace + ": construction failed")
	ErrSubmission   = errors.New(Namespace + ": submission failed")
)

var (
	ErrInvalidSize   = fmt.Errorf("%w: pool size must be at least 1", ErrConstruction)
	ErrInvalidConfig = fmt.Errorf("%w: invalid configuration", ErrConstruction)

	ErrPoolClosed   = fmt.Errorf("%w: pool is shutting down or stopped", ErrSubmission)
	ErrDisconnected = fmt.Errorf("%w: work channel is disconnected", ErrSubmission)
	ErrQueueFull    = fmt.Errorf("%w: work channel is full", ErrSubmission)
	ErrNilTask      = fmt.Errorf("%w: task is nil", ErrSubmission)

	ErrTaskPanicked = errors.New(Namespace + ": task execution panicked")
	// ErrTaskExited is the TaskPanicError.Value of a task that called runtime.Goexit.
	ErrTaskExited = errors.New(Namespace + ": task exited its goroutine")
)
