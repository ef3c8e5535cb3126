// Package errs provides the closed error taxonomy shared by every core
// component: Validation, NotFound, SchemaAhead, MigrationFailed,
// ProviderAuth, ProviderUnavailable, ContextTooLong, UserAbort,
// FallbackExhausted, Fatal.
package errs

import (
	"errors"
	"fmt"
)

// Code is a semantic error kind, closed over the taxonomy in spec §7.
type Code string

const (
	CodeValidation        Code = "VALIDATION"
	CodeNotFound          Code = "NOT_FOUND"
	CodeSchemaAhead       Code = "SCHEMA_AHEAD"
	CodeMigrationFailed   Code = "MIGRATION_FAILED"
	CodeProviderAuth      Code = "PROVIDER_AUTH"
	CodeProviderUnavail   Code = "PROVIDER_UNAVAILABLE"
	CodeContextTooLong    Code = "CONTEXT_TOO_LONG"
	CodeUserAbort         Code = "USER_ABORT"
	CodeFallbackExhausted Code = "FALLBACK_EXHAUSTED"
	CodeFatal             Code = "FATAL"
)

// Error is the unified error structure produced by the core. It carries a
// closed Code, a human message, and optional structured Details — never
// credential material (see Details discipline in callers).
type Error struct {
	Code    Code
	Message string
	Details interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New builds an *Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an *Error that wraps cause, preserving it for errors.Unwrap.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetails attaches structured, non-secret details and returns e for chaining.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Is reports whether err carries the given Code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the Code from err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Validation is a convenience constructor for the most common caller-facing kind.
func Validation(format string, args ...interface{}) *Error {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

// NotFound is a convenience constructor for missing-entity faults.
func NotFound(format string, args ...interface{}) *Error {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}
