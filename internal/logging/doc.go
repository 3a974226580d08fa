// Package logging builds the structured slog loggers used by the exporter and
// the CLI.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standard field keys (session, composition, layer, diagnostic) and a no-op
// logger for tests and wiring code that cannot fail.
package logging
