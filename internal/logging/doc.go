// Package logging assembles structured slog loggers and formatting helpers used
// across nvrgraph.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and provides attribute helpers plus the event_type / error_hint / impact
// convention for warnings. Loggers write to stderr so command output on stdout
// stays clean; NewFromConfig additionally fans every record out to a debug-level
// JSON log file. A no-op logger is available for tests and library callers that
// do not care about logs.
package logging
