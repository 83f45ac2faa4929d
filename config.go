package threadpool

import (
	"log/slog"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/threadpool/metrics"
)

// config holds ThreadPool configuration assembled from options.
type config struct {
	// QueueCapacity bounds the work channel. Zero means unbounded, in which case
	// the queue may grow until memory runs out if producers outpace workers.
	// Default: 0.
	QueueCapacity int

	// Logger receives lifecycle debug logs and recovered task panics.
	// Default: slog.Default().
	Logger *slog.Logger

	// Name is attached to every log record as the "pool" attribute when non-empty.
	Name string

	// Metrics records pool instruments.
	// Default: metrics.NoopProvider.
	Metrics metrics.Provider

	// PanicHandler is called from the worker goroutine after a task panics.
	// Default: nil.
	PanicHandler func(*TaskPanicError)

	// LockOSThread pins every worker goroutine to its own OS thread.
	// Default: false.
	LockOSThread bool
}

func defaultConfig() config {
	return config{
		QueueCapacity: 0,
		Logger:        slog.Default(),
		Metrics:       metrics.NewNoopProvider(),
	}
}

// Option configures a ThreadPool. Invalid input is reported by New as ErrInvalidConfig.
type Option func(*config) error

// WithQueueCapacity bounds the work channel to n queued tasks. Once full, Execute
// rejects new tasks with ErrQueueFull instead of blocking. n must be > 0.
func WithQueueCapacity(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithQueueCapacity requires n > 0"))
		}
		cfg.QueueCapacity = n
		return nil
	}
}

// WithLogger sets the logger used by the pool and its workers.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithName names the pool in logs.
func WithName(name string) Option {
	return func(cfg *config) error { cfg.Name = name; return nil }
}

// WithMetrics sets the metrics provider.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}

// WithPanicHandler registers fn to be called for every recovered task panic.
// fn runs on the worker goroutine; a panic inside fn is recovered and logged.
func WithPanicHandler(fn func(*TaskPanicError)) Option {
	return func(cfg *config) error { cfg.PanicHandler = fn; return nil }
}

// WithLockOSThread dedicates one OS thread to each worker for the worker's lifetime.
func WithLockOSThread() Option {
	return func(cfg *config) error { cfg.LockOSThread = true; return nil }
}
