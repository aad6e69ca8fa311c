package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldUserID       = "user_id"
	FieldHouseholdID  = "household_id"
	FieldClusterID    = "cluster_id"
	FieldAssessmentNo = "assessment_no"
	FieldReceiptNo    = "receipt_no"
	FieldAmount       = "amount"
	FieldSection      = "section"
	FieldSheetsRef    = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentRegistry  = "registry"
	ComponentTax       = "tax"
	ComponentJournal   = "journal"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpPayment  = "payment"
	OpEdit     = "edit"
	OpSearch   = "search"
	OpSync     = "sync"
	OpLoad     = "load"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
