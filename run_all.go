package threadpool

import (
	"errors"
	"sync"
)

// RunAll executes tasks on a new pool of size workers configured by opts.
// It owns the lifecycle: New, Execute every task, Shutdown, then report.
//
// Semantics:
// - Every accepted task runs exactly once; Shutdown waits for all of them.
// - Submission stops at the first Execute error; the remaining tasks are not run.
// - The returned error is errors.Join of construction, submission and task
//   panic errors (nil if everything succeeded). A panic handler passed in opts
//   is still called.
func RunAll(size int, tasks []Task, opts ...Option) error {
	var (
		mu     sync.Mutex
		panics []error
	)

	var userHandler func(*TaskPanicError)
	collect := func(tpe *TaskPanicError) {
		mu.Lock()
		panics = append(panics, tpe)
		mu.Unlock()
		if userHandler != nil {
			userHandler(tpe)
		}
	}

	// Capture a user-supplied panic handler so it keeps working alongside collection.
	opts = append(opts[:len(opts):len(opts)], func(cfg *config) error {
		userHandler = cfg.PanicHandler
		cfg.PanicHandler = collect
		return nil
	})

	p, err := New(size, opts...)
	if err != nil {
		return err
	}

	var submitErr error
	for _, t := range tasks {
		if submitErr = p.Execute(t); submitErr != nil {
			break
		}
	}

	p.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	return errors.Join(append([]error{submitErr}, panics...)...)
}
