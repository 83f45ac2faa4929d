package app

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrSignal matches any *SignalError with errors.Is.
var ErrSignal = errors.New("received signal")

// SignalError is returned by Run when a termination signal stopped the service.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "received signal <nil>"
	}
	return fmt.Sprintf("received signal %s", e.Signal)
}

func (e *SignalError) Is(target error) bool { return target == ErrSignal }

func (e *SignalError) Unwrap() error { return ErrSignal }

// DefaultSignals returns the signals that trigger a graceful shutdown.
// Each call returns a new slice.
func DefaultSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}
