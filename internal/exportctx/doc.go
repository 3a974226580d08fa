// Package exportctx holds the per-export session state.
//
// A Context is created once per export from an immutable ExportParam. It owns
// the compatibility gate, the scale/fps reconciler, the diagnostics collector
// and the id to host handle tables, plus the atomic early-exit flag that the
// walker polls between compositions and layers. Nothing here is process-wide;
// discarding the Context ends the session.
//
// Host handles registered with a Context are borrowed for the duration of the
// export and must not be kept after it returns.
package exportctx
