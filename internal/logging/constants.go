package logging

// Field names shared by the ingestion pipelines so log lines can be filtered
// per file, per format and per import run.
const (
	FieldFile         = "file"
	FieldFormat       = "format"
	FieldHash         = "hash"
	FieldRunID        = "run_id"
	FieldStatementRef = "statement_ref"
	FieldMessage      = "message_index"
	FieldLine         = "line"
	FieldReason       = "reason"
	FieldCode         = "code"
	FieldStatus       = "status"
	FieldCount        = "count"
	FieldDestination  = "destination"
	FieldDuration     = "duration_ms"
	FieldComponent    = "component"
)
