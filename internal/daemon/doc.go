// Package daemon runs the herald background process: an IPC server that
// accepts hook events over a Unix socket, an in-memory delivery queue, and
// a single worker that pushes notifications to ntfy.
//
// One daemon runs per scope. A PID file plus a file lock guard against
// double starts; stale PID files left by a crashed daemon are reclaimed.
// Shutdown requests over IPC and SIGINT/SIGTERM funnel into the same
// cancellation, after which the worker drains buffered tasks before the
// process exits.
package daemon
