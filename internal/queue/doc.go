// Package queue provides the in-memory FIFO handoff between IPC connection
// handlers and the delivery worker.
//
// Many producers enqueue concurrently; exactly one consumer dequeues. The
// pending count is maintained atomically: incremented when a task is
// accepted, decremented when the worker removes it, whether during normal
// operation or shutdown drain. The queue is deliberately not durable; a
// daemon restart starts empty.
package queue
