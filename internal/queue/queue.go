package queue

import (
	"context"
	"errors"
	"sync/atomic"

	"herald/internal/ipc"
)

// ErrQueueClosed is returned by Enqueue after Close has been called.
var ErrQueueClosed = errors.New("queue is closed")

// ErrQueueFull is returned by Enqueue when the buffer is at capacity.
var ErrQueueFull = errors.New("queue is full")

// Queue is a bounded FIFO buffer of notification tasks. It is safe for
// concurrent producers; Dequeue and TryDequeue are intended for a single
// consumer.
type Queue struct {
	tasks   chan ipc.NotificationTask
	done    chan struct{}
	pending atomic.Int64
	closed  atomic.Bool
}

// New returns a queue buffering up to capacity tasks. A non-positive
// capacity falls back to 1.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		tasks: make(chan ipc.NotificationTask, capacity),
		done:  make(chan struct{}),
	}
}

// Enqueue appends a task to the queue. It fails with ErrQueueClosed once
// the queue has been closed and ErrQueueFull when the buffer is at
// capacity; it never blocks.
func (q *Queue) Enqueue(task ipc.NotificationTask) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	select {
	case q.tasks <- task:
		q.pending.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue blocks until a task is available or ctx is canceled. The second
// return value reports whether a task was received.
func (q *Queue) Dequeue(ctx context.Context) (ipc.NotificationTask, bool) {
	select {
	case task := <-q.tasks:
		q.pending.Add(-1)
		return task, true
	case <-ctx.Done():
		return ipc.NotificationTask{}, false
	case <-q.done:
		// Closed while idle; buffered tasks are left for TryDequeue.
		return ipc.NotificationTask{}, false
	}
}

// TryDequeue removes a buffered task without blocking. Shutdown drain uses
// it to empty the buffer after producers have stopped.
func (q *Queue) TryDequeue() (ipc.NotificationTask, bool) {
	select {
	case task := <-q.tasks:
		q.pending.Add(-1)
		return task, true
	default:
		return ipc.NotificationTask{}, false
	}
}

// Pending reports the number of tasks accepted but not yet dequeued.
func (q *Queue) Pending() int {
	return int(q.pending.Load())
}

// Close marks the queue closed so further Enqueue calls fail. It is
// idempotent and does not discard buffered tasks.
func (q *Queue) Close() {
	if q.closed.CompareAndSwap(false, true) {
		close(q.done)
	}
}
