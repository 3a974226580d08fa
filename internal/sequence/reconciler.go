package sequence

import (
	"errors"

	"animexport/internal/diag"
	"animexport/internal/host"
)

// Policy says what happens to a composition that cannot be sampled.
type Policy int

const (
	// PolicySample is the normal case: export the sequence.
	PolicySample Policy = iota
	// PolicyStaticBitmap exports a single still frame instead.
	PolicyStaticBitmap
	// PolicySkip leaves the composition out of the file.
	PolicySkip
)

func (p Policy) String() string {
	switch p {
	case PolicyStaticBitmap:
		return "static-bitmap"
	case PolicySkip:
		return "skip"
	default:
		return "sample"
	}
}

// Recorder receives the diagnostic for compositions that cannot be sampled.
// *diag.Collector satisfies it.
type Recorder interface {
	Record(kind diag.Kind, compID, layerID host.ID, extra string)
}

// Outcome is the cached result for one composition.
type Outcome struct {
	Factor    Factor
	Requested Request
	Policy    Policy
	Err       error
	// Ignored counts later requests that differed from Requested.
	Ignored int
}

// Reconciler memoizes Reconcile by composition id for one export. It is not
// safe for concurrent use.
type Reconciler struct {
	rec         Recorder
	forceStatic bool
	cache       map[host.ID]Outcome
	order       []host.ID
}

// NewReconciler returns an empty reconciler. forceStatic selects the
// fallback for compositions that cannot be sampled.
func NewReconciler(rec Recorder, forceStatic bool) *Reconciler {
	return &Reconciler{
		rec:         rec,
		forceStatic: forceStatic,
		cache:       make(map[host.ID]Outcome),
	}
}

// Resolve returns the cached outcome for id, computing it on first use. Later
// calls return the first result even when in differs. A composition that
// cannot be sampled records one SequenceOutOfRange diagnostic, on first use
// only, and returns ErrSequenceOutOfRange with the Excluded factor.
func (r *Reconciler) Resolve(id host.ID, in Input) (Outcome, error) {
	if out, ok := r.cache[id]; ok {
		return out, out.Err
	}

	factor, err := Reconcile(in)
	out := Outcome{Factor: factor, Requested: in.Request, Policy: PolicySample, Err: err}
	if err != nil {
		out.Policy = PolicySkip
		if r.forceStatic {
			out.Policy = PolicyStaticBitmap
		}
		var rangeErr *RangeError
		if r.rec != nil && errors.As(err, &rangeErr) {
			r.rec.Record(diag.SequenceOutOfRange, id, host.NoID, rangeErr.Detail)
		}
	}
	r.cache[id] = out
	r.order = append(r.order, id)
	return out, err
}

// Lookup returns the cached outcome without computing one.
func (r *Reconciler) Lookup(id host.ID) (Outcome, bool) {
	out, ok := r.cache[id]
	return out, ok
}

// Revisit returns the cached outcome for a composition reached again from
// another parent. A request that differs from the original is counted as
// ignored and reported through differs.
func (r *Reconciler) Revisit(id host.ID, req Request) (out Outcome, differs, ok bool) {
	out, ok = r.cache[id]
	if !ok {
		return out, false, false
	}
	if req != out.Requested {
		out.Ignored++
		r.cache[id] = out
		return out, true, true
	}
	return out, false, true
}

// Requested returns the factor originally requested for id.
func (r *Reconciler) Requested(id host.ID) (Request, bool) {
	out, ok := r.cache[id]
	return out.Requested, ok
}

// Len returns the number of cached compositions.
func (r *Reconciler) Len() int { return len(r.cache) }

// Each calls fn for every cached composition in first-visit order.
func (r *Reconciler) Each(fn func(id host.ID, out Outcome)) {
	for _, id := range r.order {
		fn(id, r.cache[id])
	}
}
