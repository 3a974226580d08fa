// Package tagcode enumerates the feature tags of the binary animation format
// together with the preset compatibility levels (Min, Stable, Max).
//
// Tag values mirror the format's tag table and grow in introduction order,
// which is what lets the compat package gate a feature with one comparison.
package tagcode
