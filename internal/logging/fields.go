package logging

const (
	// FieldComponent is rendered as the console line prefix rather than as a key.
	FieldComponent = "component"
	// FieldSessionID identifies one export run across log lines and history rows.
	FieldSessionID     = "session_id"
	FieldCompositionID = "composition_id"
	FieldLayerID       = "layer_id"
	FieldTag           = "tag"
	// FieldDiagnostic carries the diagnostic kind name.
	FieldDiagnostic = "diagnostic"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint is the next step suggested to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)
