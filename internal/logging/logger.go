// Package logging provides a small logging abstraction so the rest of the
// application is not coupled to a specific logging framework.
package logging

// Logger is the structured logging interface used throughout fintrack.
type Logger interface {
	// Debug logs a debug-level message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info-level message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning-level message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error-level message with optional fields
	Error(msg string, fields ...Field)

	// WithError returns a new logger with an error field attached
	WithError(err error) Logger

	// WithField returns a new logger with a single field attached
	WithField(key string, value interface{}) Logger

	// WithFields returns a new logger with multiple fields attached
	WithFields(fields ...Field) Logger
}

// Field is a key-value pair attached to a log message.
type Field struct {
	Key   string
	Value interface{}
}

// Standardized field names, so log output stays filterable.
const (
	FieldMerchant      = "merchant"
	FieldCanonical     = "canonical"
	FieldTransactionID = "transaction_id"
	FieldStatementID   = "statement_id"
	FieldInstitution   = "institution"
	FieldMonth         = "month"
	FieldScore         = "score"
	FieldThreshold     = "threshold"
	FieldReason        = "reason"
	FieldCount         = "count"
	FieldGroupID       = "group_id"
)
