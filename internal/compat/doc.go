// Package compat decides which versioned format features an export may emit.
//
// A Mode (stable, beta or a custom numeric level) is resolved once into a
// Gate. The gate answers Allows with a single comparison against the
// resolved level and picks the newest permitted variant from a downgrade
// chain. Rules maps feature families to the diagnostics an export records
// when a feature is downgraded or dropped.
package compat
