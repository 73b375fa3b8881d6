// Package logging assembles structured slog loggers and formatting helpers used
// across cinematch.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so recommendation code can tag
// log lines with correlation IDs, the queried title and the candidate rank.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
