package history

import "time"

// Status is the final state of an export session.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// Session is one stored export report.
type Session struct {
	ID          string
	Manifest    string
	Output      string
	Status      Status
	TagMode     string
	TagLevel    int
	Language    string
	Warnings    int
	Errors      int
	Dropped     int
	OutputBytes int64
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time

	// Diagnostics is filled by Get only.
	Diagnostics []Diagnostic
}

// Duration returns how long the export ran.
func (s Session) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Diagnostic is one stored diagnostic record with its rendered message.
type Diagnostic struct {
	Kind          string
	Severity      string
	CompositionID uint32
	LayerID       uint32
	Extra         string
	Message       string
}
