// Package logging provides a zap-based logging facade for campusctl.
//
// Logging is silent by default so curated TUI and CLI output stays clean.
// Set the CAMPUSCTL_LOG_LEVEL environment variable to "debug", "info",
// "warn", or "error" to enable output. Commands that run long-lived
// processes (like the stub platform server) initialize an explicit level
// from their flags instead.
//
// The package exposes a small set of domain helpers (LogSaveAttempt,
// LogSaveResult, LogEventFeed) so call sites log consistent field names.
package logging
