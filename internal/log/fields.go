package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldConversation = "conversation_id"
	FieldCommand      = "command"
	FieldMessageID    = "message_id"
	FieldDuration     = "duration_ms"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldErrorKind    = "error_kind"
	FieldOperation    = "operation"
	FieldOwner        = "owner"
	FieldTransaction  = "transaction_id"
	FieldName         = "name"
	FieldCostCents    = "cost_cents"
	FieldQuantity     = "quantity"
	FieldCategory     = "category"
	FieldWindow       = "window"
	FieldPeriod       = "period"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentBot       = "bot"
	ComponentStorage   = "storage"
	ComponentGateway   = "gateway"
	ComponentReport    = "report"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentWorker    = "worker"
)

// Operations defines standard operation names
const (
	OpAdd      = "add"
	OpBackdate = "backdate"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSummary  = "summary"
	OpSelect   = "select"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithConversation adds the conversation ID field
func (f LogFields) WithConversation(id string) LogFields {
	f[FieldConversation] = id
	return f
}

// WithCommand adds the command keyword field
func (f LogFields) WithCommand(command string) LogFields {
	f[FieldCommand] = command
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(name string, costCents, quantity int64, category string) LogFields {
	f[FieldName] = name
	f[FieldCostCents] = costCents
	f[FieldQuantity] = quantity
	f[FieldCategory] = category
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
