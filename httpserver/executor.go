package httpserver

import "github.com/ygrebnov/threadpool"

// Executor runs connection handlers.
// A non-nil error means fn was not accepted and will never run.
type Executor interface {
	Execute(fn func()) error
}

// ExecutorFunc adapts an ordinary function to Executor.
type ExecutorFunc func(fn func()) error

func (f ExecutorFunc) Execute(fn func()) error { return f(fn) }

// PoolExecutor submits handlers to p.
func PoolExecutor(p *threadpool.ThreadPool) Executor {
	return ExecutorFunc(func(fn func()) error { return p.Execute(fn) })
}

// Blocking runs every handler inline on the accepting goroutine, so requests
// are served one at a time.
func Blocking() Executor {
	return ExecutorFunc(func(fn func()) error {
		fn()
		return nil
	})
}
