// Package logging assembles structured slog loggers and formatting helpers used
// across nrw.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so resolver and provider code can
// tag log lines with run IDs, movie IDs and provider names. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
