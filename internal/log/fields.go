package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldBatchID    = "batch_id"
	FieldAnimalID   = "animal_id"
	FieldCostType   = "cost_type"
	FieldAmount     = "amount_cents"
	FieldImagePath  = "image_path"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAccounts  = "accounts"
	ComponentBatches   = "batches"
	ComponentAnimals   = "animals"
	ComponentCosts     = "costs"
	ComponentTracking  = "tracking"
	ComponentDashboard = "dashboard"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentMedia     = "media"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpCleanup  = "cleanup"
	OpSweep    = "sweep"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
