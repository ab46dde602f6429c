// Package logging builds slog loggers with console and JSON handlers and
// provides the attr helpers used across the daemon.
package logging
