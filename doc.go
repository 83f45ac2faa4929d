// Package threadpool provides a fixed-size pool of workers that execute tasks
// pulled from a shared work channel, with coordinated shutdown.
//
// Constructors
//   - New(size, opts ...Option): starts size workers immediately; size must be >= 1.
//
// Defaults
// Unless overridden, the following defaults apply to a newly created pool:
//   - Work channel: unbounded (WithQueueCapacity bounds it and rejects when full)
//   - Logger: slog.Default()
//   - Metrics: no-op provider
//   - Panic handler: none (panics are still recovered and logged)
//
// Execution
// Every task accepted by Execute is delivered to exactly one worker. Workers run
// a task to completion; a panicking task is recovered, logged, reported to the
// panic handler as a *TaskPanicError and the worker moves on to the next task.
//
// Shutdown
// Shutdown rejects new tasks, queues one terminate message per worker behind
// any pending tasks, disconnects the channel and joins every worker in order.
// Tasks already running are never interrupted and tasks already queued still run.
// Shutdown is idempotent and safe to call concurrently, e.g. from a signal
// handler and from application code at the same time.
//
// Errors
//   - ErrConstruction: ErrInvalidSize, ErrInvalidConfig.
//   - ErrSubmission: ErrPoolClosed, ErrQueueFull, ErrDisconnected, ErrNilTask.
//   - ErrTaskPanicked: wrapped by *TaskPanicError; never returned by Execute.
package threadpool
