// Package logging assembles structured slog loggers and formatting helpers used
// across the datapacks commands and libraries.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and mirrors terminal output into a size-rotated JSON log file
// when a log directory is configured. Context helpers tag log lines with the
// run ID, DataPack key and build phase. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging
