package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldPeriod     = "period"
	FieldDimension  = "dimension"
	FieldFormat     = "format"
	FieldBackend    = "backend"
	FieldQueue      = "queue"
	FieldExchange   = "exchange"
)

// Components defines standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAnalytics = "analytics"
	ComponentLedger    = "ledger"
	ComponentReport    = "report"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentAudit     = "audit"
	ComponentExport    = "export"
)

// Operations defines standard operation names.
const (
	OpTotals     = "totals"
	OpHighlights = "highlights"
	OpCharts     = "charts"
	OpReport     = "report"
	OpDashboard  = "dashboard"
	OpConsume    = "consume"
	OpPublish    = "publish"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)
