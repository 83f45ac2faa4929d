package threadpool

// ForEach runs fn for each item on a new pool of size workers and waits for all to finish.
// It is a convenience wrapper over RunAll; see RunAll for error semantics.
func ForEach[T any](size int, items []T, fn func(T), opts ...Option) error {
	tasks := make([]Task, len(items))
	for i, it := range items {
		tasks[i] = func() { fn(it) }
	}
	return RunAll(size, tasks, opts...)
}
