// Package sequence reconciles the scale and frame rate a composition is
// sampled at when it is flattened into a bitmap or video sequence.
//
// Reconcile is a pure function of the composition's native size and frame
// rate, the short-side resolution ceiling and the requested factor. The
// Reconciler memoizes the result per composition id so every reference to the
// same source inside one export is sampled identically, whichever parent
// reached it first.
package sequence
