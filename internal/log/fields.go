package log

// Field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldToken       = "load_token"
	FieldRevision    = "revision"
	FieldCount       = "count"
	FieldFilter      = "filter"
	FieldTxID        = "transaction_id"
	FieldTxType      = "transaction_type"
	FieldTxCategory  = "category"
	FieldTxAmount    = "amount"
	FieldFormat      = "format"
	FieldDestination = "destination"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentDashboard = "dashboard"
	ComponentLedger    = "ledger"
	ComponentExport    = "export"
	ComponentEvents    = "events"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentMirror    = "mirror"
)

const (
	OpLoad     = "load"
	OpCreate   = "create"
	OpDelete   = "delete"
	OpFilter   = "filter"
	OpExport   = "export"
	OpPublish  = "publish"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Fields is a small builder for slog key/value pairs.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithTransaction adds the user-visible attributes of a transaction.
func (f Fields) WithTransaction(id, typ, category, amount string) Fields {
	if id != "" {
		f[FieldTxID] = id
	}
	f[FieldTxType] = typ
	f[FieldTxCategory] = category
	f[FieldTxAmount] = amount
	return f
}

// ToSlice flattens the fields for slog.
func (f Fields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
