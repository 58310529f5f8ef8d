package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID correlates every record emitted while rendering one pipeline.
	FieldRunID = "run_id"
	// FieldTemplate names the pipeline template being evaluated.
	FieldTemplate = "template"
	// FieldRole names the stage role a record is about (decoder, encoder, ...).
	FieldRole = "role"
	// FieldChannel is the zero-based channel index.
	FieldChannel = "channel"
	// FieldEventType is a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldDecisionType names the kind of choice a decision log records.
	FieldDecisionType = "decision_type"
)
