// Package exporter drives one export from a host project to an animation
// file.
//
// Run walks the selected compositions depth first, writing every referenced
// composition before the compositions that use it. Each versioned feature is
// resolved through the session's compatibility gate, so it is written at the
// newest permitted revision, downgraded, or omitted with a diagnostic.
// Sequence compositions are sampled through the session's scale/fps
// reconciler. Recoverable problems are recorded and the walk continues; an
// elevating diagnostic or context cancellation stops it and the export
// aborts without touching the output path.
//
// The file is assembled in a per-session scratch directory, verified, and
// only then moved over the output path while an exclusive lock on the output
// is held.
package exporter
