// Package logging assembles the structured slog loggers used across herald.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes small attr helpers so daemon and CLI code emit log
// lines with the same shape. A no-op logger is provided for tests and wiring
// code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// stay consistent with the rest of the system.
package logging
