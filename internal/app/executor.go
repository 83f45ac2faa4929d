package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/ygrebnov/threadpool"
	"github.com/ygrebnov/threadpool/httpserver"
	"github.com/ygrebnov/threadpool/internal/config"
	"github.com/ygrebnov/threadpool/metrics"
)

// executor is an httpserver.Executor the app can drain on exit.
type executor interface {
	httpserver.Executor
	// Shutdown waits for accepted handlers until ctx is done.
	Shutdown(ctx context.Context) error
}

func newExecutor(cfg config.Config, logger *slog.Logger, provider metrics.Provider) (executor, error) {
	mode, err := config.ParseHandle(cfg.Handle)
	if err != nil {
		return nil, err
	}

	switch mode {
	case config.HandleGroup:
		return newGroupExecutor(cfg.Workers, logger), nil
	case config.HandleBlocked:
		return blockedExecutor{Executor: httpserver.Blocking()}, nil
	default:
		opts := []threadpool.Option{
			threadpool.WithLogger(logger),
			threadpool.WithName("webservice"),
			threadpool.WithMetrics(provider),
		}
		if cfg.QueueCapacity > 0 {
			opts = append(opts, threadpool.WithQueueCapacity(cfg.QueueCapacity))
		}
		pool, err := threadpool.New(cfg.Workers, opts...)
		if err != nil {
			return nil, err
		}
		return poolExecutor{pool: pool}, nil
	}
}

type poolExecutor struct {
	pool *threadpool.ThreadPool
}

func (e poolExecutor) Execute(fn func()) error { return e.pool.Execute(fn) }

func (e poolExecutor) Shutdown(ctx context.Context) error { return e.pool.ShutdownContext(ctx) }

// groupExecutor runs each handler in its own goroutine, at most limit at a time.
// Execute blocks while the limit is reached.
type groupExecutor struct {
	g      errgroup.Group
	logger *slog.Logger
}

func newGroupExecutor(limit int, logger *slog.Logger) *groupExecutor {
	e := &groupExecutor{logger: logger}
	e.g.SetLimit(limit)
	return e
}

func (e *groupExecutor) Execute(fn func()) error {
	e.g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("handler panicked",
					slog.String("panic", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		fn()
		return nil
	})
	return nil
}

func (e *groupExecutor) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		_ = e.g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type blockedExecutor struct {
	httpserver.Executor
}

func (blockedExecutor) Shutdown(context.Context) error { return nil }
