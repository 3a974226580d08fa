// Package diag accumulates structured export diagnostics.
//
// A Collector is an append-only log of warning and error records, each
// optionally tied to a composition and layer. Recording never fails: once the
// configured bound is reached the collector keeps the newest records in a ring
// buffer. Error kinds that mean the output can no longer be trusted raise the
// owner's early-exit flag as a side effect; stopping the walk is left to the
// caller.
//
// The message catalogue supplies the English description and remediation hint
// shown to users for every kind.
package diag
