package threadpool

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Task is a unit of work executed by exactly one worker.
// It captures whatever state it needs; ownership passes to the pool on Execute.
// A task that calls runtime.Goexit is reported like a panic, with ErrTaskExited
// as the value.
type Task func()

// message is the single item type carried by the work channel.
// Exactly one of task and shutdown is set.
type message struct {
	task     Task
	seq      uint64
	shutdown bool
}

func taskMessage(t Task, seq uint64) message { return message{task: t, seq: seq} }

func shutdownMessage() message { return message{shutdown: true} }

// TaskPanicError describes a task that panicked inside a worker.
// It unwraps to ErrTaskPanicked.
type TaskPanicError struct {
	// WorkerID is the ordinal of the worker that ran the task.
	WorkerID int
	// Seq is the submission sequence number assigned by Execute, starting at 0.
	Seq uint64
	// Value is the value passed to panic, or ErrTaskExited.
	Value any
	// Stack is the goroutine stack captured at recovery.
	Stack []byte
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTaskPanicked.Error(), e.Value)
}

func (e *TaskPanicError) Unwrap() error { return ErrTaskPanicked }

func (e *TaskPanicError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "task(seq=%d,worker=%d): %s\n%s", e.Seq, e.WorkerID, e.Error(), e.Stack)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// AsTaskPanic returns the *TaskPanicError in err's chain, if any.
func AsTaskPanic(err error) (*TaskPanicError, bool) {
	var tpe *TaskPanicError
	if errors.As(err, &tpe) {
		return tpe, true
	}
	return nil, false
}

// runTask executes t and converts a panic into a *TaskPanicError.
func runTask(t Task, workerID int, seq uint64) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &TaskPanicError{WorkerID: workerID, Seq: seq, Value: v, Stack: debug.Stack()}
		}
	}()

	t()
	return nil
}
