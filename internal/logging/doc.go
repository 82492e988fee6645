// Package logging provides the slog construction and shared structured
// field conventions used across houndarr: a human-oriented console
// handler, a JSON handler, and helpers for instance/cycle scoped loggers.
package logging
