package contracts

import "time"

// LogLevel represents the severity level for logging.
type LogLevel int

const (
	// DebugLevel indicates messages useful for troubleshooting.
	DebugLevel LogLevel = iota
	// InfoLevel indicates informational messages about normal progress.
	InfoLevel
	// WarnLevel indicates potentially harmful situations.
	WarnLevel
	// ErrorLevel indicates serious issues that need attention.
	ErrorLevel
)

// Field is a chainable builder for a single structured log field.
type Field interface {
	Bool(key string, val bool) Field
	Int(key string, val int) Field
	Float64(key string, val float64) Field
	String(key string, val string) Field
	Duration(key string, val time.Duration) Field
	Error(key string, val error) Field
}

// Logger provides leveled, structured logging. Implementations must be safe
// for concurrent use; the transport logs from platform callback threads.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	Field() Field

	SetLevel(level LogLevel)
}
