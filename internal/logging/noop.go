// Package logging provides structured logging capabilities
package logging

// NoOpLogger is a logger that discards all logs. It backs the CLI's
// --quiet flag and stands in for EnhancedLogger's base Logger whenever a
// caller wants the WithError/LogOperation bookkeeping without any output.
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-op logger
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

// Info logs an info message (no-op)
func (n *NoOpLogger) Info(msg string, fields ...interface{}) {}

// Warn logs a warning message (no-op)
func (n *NoOpLogger) Warn(msg string, fields ...interface{}) {}

// Error logs an error message (no-op)
func (n *NoOpLogger) Error(msg string, fields ...interface{}) {}

// Debug logs a debug message (no-op)
func (n *NoOpLogger) Debug(msg string, fields ...interface{}) {}

// Fatal logs a fatal message (no-op, does not exit)
func (n *NoOpLogger) Fatal(msg string, fields ...interface{}) {}

// WithTraceID creates a new logger with a trace ID (returns self)
func (n *NoOpLogger) WithTraceID(traceID string) Logger {
	return n
}

// WithComponent creates a new logger with a component name (returns self)
func (n *NoOpLogger) WithComponent(component string) Logger {
	return n
}
</content>
