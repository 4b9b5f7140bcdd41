package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldJobID     = "job_id"
	FieldRow       = "row"
	FieldField     = "field"
	FieldValue     = "value"
	FieldRecords   = "records"
	FieldRows      = "rows"
	FieldMonths    = "months"
	FieldSkipped   = "skipped"
	FieldDuration  = "duration_ms"
	FieldBackend   = "backend"
	FieldOrder     = "order"
	FieldShards    = "shards"
	FieldInput     = "input"
	FieldOutput    = "output"
	FieldError     = "error"
	FieldOperation = "operation"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentEngine  = "engine"
	ComponentReport  = "report"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpLoad       = "load"
	OpAccumulate = "accumulate"
	OpDerive     = "derive"
	OpWrite      = "write"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
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

// WithJobID adds the queue job ID field
func (f LogFields) WithJobID(id string) LogFields {
	if id != "" {
		f[FieldJobID] = id
	}
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

// WithReport adds the summary counters of a finished report
func (f LogFields) WithReport(records, rows, skipped int, durationMs int64) LogFields {
	f[FieldRecords] = records
	f[FieldRows] = rows
	f[FieldSkipped] = skipped
	f[FieldDuration] = durationMs
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
