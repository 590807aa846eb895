package logger

// Standard field names for consistent logging.
const (
	FieldService    = "service"
	FieldOperation  = "operation"
	FieldTenantID   = "tenant_id"
	FieldBranchID   = "branch_id"
	FieldSessionID  = "session_id"
	FieldClassID    = "class_id"
	FieldClientID   = "client_id"
	FieldEnrollment = "enrollment_id"
	FieldEventKind  = "event_kind"
	FieldDelta      = "delta"
	FieldRequestID  = "request_id"
)
