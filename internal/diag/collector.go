package diag

import (
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"animexport/internal/host"
	"animexport/internal/logging"
)

// DefaultMaxRecords bounds the collector before it degrades to a ring buffer.
const DefaultMaxRecords = 4096

// Record is one structured, non-fatal problem report.
type Record struct {
	Kind          Kind
	CompositionID host.ID
	LayerID       host.ID
	Extra         string
}

// Severity is a shortcut for r.Kind.Severity().
func (r Record) Severity() Severity { return r.Kind.Severity() }

// EarlyExit receives the cooperative stop request raised by elevating kinds.
type EarlyExit interface {
	RequestEarlyExit()
}

// Namer resolves ids to display names when formatting records.
type Namer interface {
	CompositionName(id host.ID) string
	LayerName(id host.ID) string
}

// Option configures a Collector.
type Option func(*Collector)

// WithMaxRecords sets the record bound. Values below one keep the default.
func WithMaxRecords(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithEarlyExit wires the flag set by elevating kinds.
func WithEarlyExit(e EarlyExit) Option {
	return func(c *Collector) { c.exit = e }
}

// WithLogger mirrors each record to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) { c.logger = logger }
}

// Collector is an append-only, insertion-ordered diagnostics log. Recording
// never fails and never unwinds the caller.
type Collector struct {
	mu      sync.Mutex
	records []Record
	limit   int
	head    int // oldest entry once the buffer has wrapped
	dropped int
	exit    EarlyExit
	logger  *slog.Logger
}

// NewCollector constructs an empty collector.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{limit: DefaultMaxRecords}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	return c
}

// Record appends one diagnostic. Once the bound is reached the oldest record
// is overwritten and counted as dropped.
func (c *Collector) Record(kind Kind, compID, layerID host.ID, extra string) {
	rec := Record{Kind: kind, CompositionID: compID, LayerID: layerID, Extra: extra}

	c.mu.Lock()
	if len(c.records) < c.limit {
		c.records = append(c.records, rec)
	} else {
		c.records[c.head] = rec
		c.head = (c.head + 1) % c.limit
		c.dropped++
	}
	exit := c.exit
	c.mu.Unlock()

	c.log(rec)
	if exit != nil && kind.ElevatesEarlyExit() {
		exit.RequestEarlyExit()
	}
}

func (c *Collector) log(rec Record) {
	attrs := []logging.Attr{
		logging.String(logging.FieldDiagnostic, rec.Kind.String()),
		logging.Composition(rec.CompositionID),
		logging.Layer(rec.LayerID),
	}
	if rec.Extra != "" {
		attrs = append(attrs, logging.String("extra", rec.Extra))
	}
	if rec.Kind.IsError() {
		c.logger.Warn("export error recorded", logging.Args(attrs...)...)
		return
	}
	c.logger.Debug("export warning recorded", logging.Args(attrs...)...)
}

// Drain returns the recorded diagnostics in insertion order. The sequence is
// evaluated lazily when ranged over and does not consume the records.
func (c *Collector) Drain() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, rec := range c.snapshot() {
			if !yield(rec) {
				return
			}
		}
	}
}

// Records collects Drain into a slice.
func (c *Collector) Records() []Record {
	return slices.Collect(c.Drain())
}

func (c *Collector) snapshot() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, 0, len(c.records))
	out = append(out, c.records[c.head:]...)
	out = append(out, c.records[:c.head]...)
	return out
}

// Entry is one group of identical records.
type Entry struct {
	Record
	// Count is the number of identical records folded into the entry.
	Count int
	// First is the position of the first record of the group in the input.
	First int
}

// Distinct folds identical records into one entry each, keeping the order in
// which each record first appeared.
func Distinct(records iter.Seq[Record]) []Entry {
	index := make(map[Record]int)
	var out []Entry
	i := 0
	for rec := range records {
		if at, ok := index[rec]; ok {
			out[at].Count++
		} else {
			index[rec] = len(out)
			out = append(out, Entry{Record: rec, Count: 1, First: i})
		}
		i++
	}
	return out
}

// Counts returns the number of warnings and errors currently held.
func (c *Collector) Counts() (warnings, errs int) {
	for rec := range c.Drain() {
		if rec.Kind.IsError() {
			errs++
		} else {
			warnings++
		}
	}
	return warnings, errs
}

// Len returns the number of held records.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Dropped returns how many records were overwritten after the bound was hit.
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Clear discards every record.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
	c.head = 0
	c.dropped = 0
}

// Format renders a record as "[comp] > [layer]: info suggestion".
func Format(rec Record, names Namer) string {
	var comp, layer string
	if names != nil {
		comp = names.CompositionName(rec.CompositionID)
		layer = names.LayerName(rec.LayerID)
	}
	var b strings.Builder
	b.WriteString("[" + comp + "] > [" + layer + "]: ")
	b.WriteString(Info(rec.Kind, rec.Extra))
	if s := Suggestion(rec.Kind); s != "" {
		b.WriteByte(' ')
		b.WriteString(s)
	}
	return b.String()
}
