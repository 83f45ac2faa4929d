// Package queue provides the multi-producer, multi-consumer FIFO used to hand
// work from submitters to pool workers.
//
// A Queue is unbounded by default: Send never waits for a receiver and is
// limited only by available memory. A positive capacity turns on bounded mode,
// where Send rejects with ErrFull instead of blocking.
//
// Close disconnects the queue. Items already queued are still delivered;
// once the queue is both closed and empty, Receive reports the disconnect by
// returning false to every waiting and future receiver.
package queue

import (
	"errors"
	"sync"
)

const Namespace = "queue"

var (
	ErrClosed = errors.New(Namespace + ": send on closed queue")
	ErrFull   = errors.New(Namespace + ": queue is full")
)

// Queue is a FIFO safe for concurrent use by any number of senders and receivers.
// The zero value is not usable; construct with New.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond

	items []T
	head  int

	capacity int
	closed   bool
}

// New creates a queue. capacity <= 0 means unbounded.
func New[T any](capacity int) *Queue[T] {
	if capacity < 0 {
		capacity = 0
	}
	q := &Queue[T]{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Send appends v to the tail of the queue and wakes one waiting receiver.
// It never blocks on receivers.
func (q *Queue[T]) Send(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if q.capacity > 0 && q.lenLocked() >= q.capacity {
		return ErrFull
	}

	q.items = append(q.items, v)
	q.notEmpty.Signal()
	return nil
}

// ForceSend is Send without the capacity check. It is meant for control
// messages that must be queued even when a bounded queue is full.
func (q *Queue[T]) ForceSend(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, v)
	q.notEmpty.Signal()
	return nil
}

// Receive removes and returns the head of the queue, blocking while the queue
// is empty and open. ok is false only when the queue is closed and drained.
func (q *Queue[T]) Receive() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.lenLocked() == 0 {
		if q.closed {
			return v, false
		}
		q.notEmpty.Wait()
	}

	v = q.items[q.head]
	var zero T
	q.items[q.head] = zero // release the reference for GC
	q.head++
	q.compactLocked()
	return v, true
}

// TryReceive is the non-blocking form of Receive. ok is false if nothing is queued.
func (q *Queue[T]) TryReceive() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lenLocked() == 0 {
		return v, false
	}
	v = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	q.compactLocked()
	return v, true
}

// Close disconnects the queue. Subsequent sends fail with ErrClosed and all
// blocked receivers are woken. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

// Cap returns the configured capacity; 0 means unbounded.
func (q *Queue[T]) Cap() int { return q.capacity }

func (q *Queue[T]) lenLocked() int { return len(q.items) - q.head }

// compactLocked reclaims the consumed prefix once it dominates the backing array.
func (q *Queue[T]) compactLocked() {
	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= 64 && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		var zero T
		for i := n; i < len(q.items); i++ {
			q.items[i] = zero
		}
		q.items = q.items[:n]
		q.head = 0
	}
}
