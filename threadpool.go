package threadpool

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/threadpool/queue"
)

// ThreadPool runs tasks on a fixed number of workers fed by a shared FIFO work channel.
// All methods are safe for concurrent use.
type ThreadPool struct {
	// noCopy prevents accidental copying of the pool.
	//go:nocopy
	nc noCopy

	cfg    *config
	logger *slog.Logger
	inst   *instruments

	tasks   *queue.Queue[message]
	workers []*worker

	// mu guards state. Execute holds the read lock across the enqueue so no task
	// can land behind the shutdown sentinels.
	mu    sync.RWMutex
	state State

	// seq numbers accepted tasks in submission order.
	seq atomic.Uint64

	lc      *lifecycleCoordinator
	stopped chan struct{}
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
// It works with the "-copylocks" analyzer via the presence of Lock/Unlock methods.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates a pool of size workers, each already waiting for work.
//
// It fails with ErrInvalidSize if size < 1 and with ErrInvalidConfig if an option
// is invalid; in both cases no worker is started.
//
// A pool that becomes unreachable without Shutdown still disconnects its work
// channel, so workers drain whatever is queued and exit. Call Shutdown (or Close)
// to wait for that deterministically.
func New(size int, opts ...Option) (*ThreadPool, error) {
	if size < 1 {
		return nil, errorc.With(ErrInvalidSize, errorc.String("size", strconv.Itoa(size)))
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.Logger
	if cfg.Name != "" {
		logger = logger.With(slog.String("pool", cfg.Name))
	}

	p := &ThreadPool{
		cfg:     &cfg,
		logger:  logger,
		inst:    newInstruments(cfg.Metrics, cfg.Name),
		tasks:   queue.New[message](cfg.QueueCapacity),
		workers: make([]*worker, 0, size),
		state:   StateRunning,
		stopped: make(chan struct{}),
	}

	for id := range size {
		w := newWorker(id, p.tasks, &cfg, logger, p.inst)
		p.workers = append(p.workers, w)
		w.start()
	}

	p.lc = p.newLifecycle()

	runtime.AddCleanup(p, func(q *queue.Queue[message]) { q.Close() }, p.tasks)

	logger.Debug("thread pool started", slog.Int("size", size), slog.Int("queue_capacity", cfg.QueueCapacity))
	return p, nil
}

func (p *ThreadPool) newLifecycle() *lifecycleCoordinator {
	joins := make([]func(), 0, len(p.workers))
	for _, w := range p.workers {
		joins = append(joins, func() {
			p.logger.Debug("shutting down worker", slog.Int("worker", w.id))
			w.join()
		})
	}

	return newLifecycleCoordinator(
		len(p.workers),
		func() error { return p.tasks.ForceSend(shutdownMessage()) },
		p.tasks.Close,
		joins,
		p.markStopped,
		func(err error) {
			p.logger.Warn("failed to send terminate message; relying on disconnect", slog.Any("error", err))
		},
	)
}

// Execute queues t for execution by exactly one worker and returns without
// waiting for a worker to become free.
//
// Errors (all wrap ErrSubmission):
//   - ErrNilTask if t is nil.
//   - ErrPoolClosed once Shutdown has been called.
//   - ErrQueueFull if WithQueueCapacity is set and the channel is full.
//   - ErrDisconnected if the work channel has no receivers left.
//
// On error the task has not been queued and will never run.
func (p *ThreadPool) Execute(t Task) error {
	if t == nil {
		p.inst.rejected.Add(1)
		return ErrNilTask
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state != StateRunning {
		p.inst.rejected.Add(1)
		return ErrPoolClosed
	}

	seq := p.seq.Add(1) - 1
	p.inst.depth.Add(1)
	if err := p.tasks.Send(taskMessage(t, seq)); err != nil {
		p.inst.depth.Add(-1)
		p.inst.rejected.Add(1)
		if errors.Is(err, queue.ErrFull) {
			return ErrQueueFull
		}
		return ErrDisconnected
	}

	p.inst.submitted.Add(1)
	return nil
}

// Shutdown stops accepting tasks, lets every worker finish its current task and
// everything already queued, then joins all workers before returning.
//
// Only the first call does the work. Later or concurrent calls return
// immediately; use Done to wait for completion from another goroutine.
//
// Shutdown must not be called from a task: the calling worker would wait for
// itself forever. Inside a task, use go p.Shutdown() or ShutdownContext.
func (p *ThreadPool) Shutdown() {
	if !p.beginShutdown() {
		return
	}
	p.lc.Shutdown()
}

// ShutdownContext starts the same sequence as Shutdown and waits until the pool
// is stopped or ctx is done. A ctx error does not abort the shutdown; workers
// keep draining in the background and Done is closed once they have exited.
// Unlike Shutdown, every caller waits. Called from a task, it can only return
// ctx's error, since the calling worker is one of those being waited for.
func (p *ThreadPool) ShutdownContext(ctx context.Context) error {
	if p.beginShutdown() {
		go p.lc.Shutdown()
	}

	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close is Shutdown for callers that expect an io.Closer. It always returns nil.
// Like Shutdown, it must not be called from a task.
func (p *ThreadPool) Close() error {
	p.Shutdown()
	return nil
}

// Done returns a channel closed once every worker has been joined.
func (p *ThreadPool) Done() <-chan struct{} { return p.stopped }

// State returns the current lifecycle state.
func (p *ThreadPool) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Size returns the number of workers, fixed at construction.
func (p *ThreadPool) Size() int { return len(p.workers) }

// Pending returns the number of tasks queued but not yet picked up by a worker.
// During shutdown it also counts undelivered terminate messages.
func (p *ThreadPool) Pending() int { return p.tasks.Len() }

// beginShutdown moves Running to ShuttingDown and reports whether this call did it.
func (p *ThreadPool) beginShutdown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateRunning {
		return false
	}
	p.state = StateShuttingDown
	p.logger.Debug("sending terminate message to all workers", slog.Int("workers", len(p.workers)))
	return true
}

func (p *ThreadPool) markStopped() {
	p.mu.Lock()
	p.state = StateStopped
	p.mu.Unlock()

	close(p.stopped)
	p.logger.Debug("thread pool stopped")
}
