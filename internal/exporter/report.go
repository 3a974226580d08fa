package exporter

import (
	"time"

	"animexport/internal/diag"
	"animexport/internal/history"
	"animexport/internal/host"
	"animexport/internal/sequence"
)

// Diagnostic is one drained record with its rendered message.
type Diagnostic struct {
	diag.Record
	Message string
}

// Group is one line of the grouped diagnostics summary: identical records
// folded together with their count.
type Group struct {
	Diagnostic
	Count int
}

// Sequence describes how one sequence composition was sampled.
type Sequence struct {
	CompositionID host.ID
	Name          string
	Requested     sequence.Request
	Factor        sequence.Factor
	Policy        sequence.Policy
	// Ignored counts later parents whose request differed from Requested.
	Ignored int
}

// Report summarizes one export. An aborted report has no output file.
type Report struct {
	SessionID   string
	Manifest    string
	Output      string
	Status      history.Status
	TagMode     string
	TagLevel    int
	Language    string
	Bytes       int64
	Tags        int
	Dropped     int
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Diagnostics []Diagnostic
	Groups      []Group
	Sequences   []Sequence
}

// Completed reports whether the output file was written.
func (r *Report) Completed() bool { return r != nil && r.Status == history.StatusCompleted }

// Counts returns the number of warning and error diagnostics.
func (r *Report) Counts() (warnings, errs int) {
	for _, d := range r.Diagnostics {
		if d.Kind.IsError() {
			errs++
		} else {
			warnings++
		}
	}
	return warnings, errs
}

func drain(c *diag.Collector, names diag.Namer) []Diagnostic {
	var out []Diagnostic
	for rec := range c.Drain() {
		out = append(out, Diagnostic{Record: rec, Message: diag.Format(rec, names)})
	}
	return out
}

// group folds the drained diagnostics for the summary view. Diagnostics keeps
// every record.
func group(diags []Diagnostic) []Group {
	records := func(yield func(diag.Record) bool) {
		for _, d := range diags {
			if !yield(d.Record) {
				return
			}
		}
	}
	entries := diag.Distinct(records)
	out := make([]Group, 0, len(entries))
	for _, e := range entries {
		out = append(out, Group{Diagnostic: diags[e.First], Count: e.Count})
	}
	return out
}

func sequences(recon *sequence.Reconciler, names diag.Namer) []Sequence {
	var out []Sequence
	recon.Each(func(id host.ID, o sequence.Outcome) {
		out = append(out, Sequence{
			CompositionID: id,
			Name:          names.CompositionName(id),
			Requested:     o.Requested,
			Factor:        o.Factor,
			Policy:        o.Policy,
			Ignored:       o.Ignored,
		})
	})
	return out
}

func (r *Report) session() history.Session {
	warnings, errs := r.Counts()
	sess := history.Session{
		ID:          r.SessionID,
		Manifest:    r.Manifest,
		Output:      r.Output,
		Status:      r.Status,
		TagMode:     r.TagMode,
		TagLevel:    r.TagLevel,
		Language:    r.Language,
		Warnings:    warnings,
		Errors:      errs,
		Dropped:     r.Dropped,
		OutputBytes: r.Bytes,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
	for _, d := range r.Diagnostics {
		sess.Diagnostics = append(sess.Diagnostics, history.Diagnostic{
			Kind:          d.Kind.String(),
			Severity:      d.Kind.Severity().String(),
			CompositionID: uint32(d.CompositionID),
			LayerID:       uint32(d.LayerID),
			Extra:         d.Extra,
			Message:       d.Message,
		})
	}
	return sess
}
