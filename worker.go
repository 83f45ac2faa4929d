package threadpool

import (
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/ygrebnov/threadpool/queue"
)

// worker owns one goroutine that consumes the shared work channel until it
// receives a shutdown message or the channel disconnects.
type worker struct {
	id    int
	tasks *queue.Queue[message]
	done  chan struct{}

	logger       *slog.Logger
	inst         *instruments
	panicHandler func(*TaskPanicError)
	lockThread   bool
}

func newWorker(id int, tasks *queue.Queue[message], cfg *config, logger *slog.Logger, inst *instruments) *worker {
	return &worker{
		id:           id,
		tasks:        tasks,
		done:         make(chan struct{}),
		logger:       logger.With(slog.Int("worker", id)),
		inst:         inst,
		panicHandler: cfg.PanicHandler,
		lockThread:   cfg.LockOSThread,
	}
}

func (w *worker) start() {
	go w.run()
}

// run consumes the work channel. When a task ends the goroutine with
// runtime.Goexit, run starts a replacement goroutine for the same worker.
func (w *worker) run() {
	stopped := false
	defer func() {
		if stopped {
			close(w.done)
			return
		}
		w.logger.Warn("worker goroutine exited inside a task; restarting")
		go w.run()
	}()

	if w.lockThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	for {
		msg, ok := w.tasks.Receive()
		if !ok {
			w.logger.Debug("work channel disconnected; terminating")
			stopped = true
			return
		}
		if msg.shutdown {
			w.logger.Debug("worker was told to terminate")
			stopped = true
			return
		}

		w.inst.depth.Add(-1)
		w.execute(msg)
	}
}

func (w *worker) execute(msg message) {
	w.logger.Debug("worker got a task; executing", slog.Uint64("seq", msg.seq))

	w.inst.inflight.Add(1)
	start := time.Now()

	var err error
	returned := false
	defer func() {
		if !returned {
			err = &TaskPanicError{WorkerID: w.id, Seq: msg.seq, Value: ErrTaskExited, Stack: debug.Stack()}
		}
		w.finish(err, time.Since(start))
	}()

	err = runTask(msg.task, w.id, msg.seq)
	returned = true
}

// finish records a task's outcome. It also runs while a task is unwinding
// through runtime.Goexit.
func (w *worker) finish(err error, took time.Duration) {
	w.inst.duration.Record(took.Seconds())
	w.inst.inflight.Add(-1)
	w.inst.completed.Add(1)

	if err == nil {
		return
	}

	w.inst.panicked.Add(1)
	tpe, _ := AsTaskPanic(err)
	w.logger.Error("task panicked",
		slog.Uint64("seq", tpe.Seq),
		slog.Any("panic", tpe.Value),
		slog.String("stack", string(tpe.Stack)),
	)
	w.notify(tpe)
}

// notify hands tpe to the panic handler; a panicking handler must not kill the worker either.
func (w *worker) notify(tpe *TaskPanicError) {
	if w.panicHandler == nil {
		return
	}
	defer func() {
		if v := recover(); v != nil {
			w.logger.Error("panic handler panicked", slog.Any("panic", v))
		}
	}()
	w.panicHandler(tpe)
}

// join blocks until the worker goroutine has exited.
func (w *worker) join() { <-w.done }
