package log

// Canonical structured log field names. Use these constants instead of
// ad-hoc strings so log output stays queryable across components.
const (
	FieldComponent = "component"
	FieldEvent     = "event"

	FieldSessionID     = "session_id"
	FieldState         = "state"
	FieldEventType     = "event_type"
	FieldCategory      = "category"
	FieldStatus        = "status"
	FieldInvoice       = "invoice"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldCapability    = "capability"
	FieldCorrelationID = "correlation_id"

	FieldError    = "error"
	FieldDuration = "duration_ms"
)
