// Package errors provides structured error types for the logistica dashboard.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, HTTP API and pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes mirror the failure taxonomy of the decision graph builder:
//   - MISSING_REQUIRED_FIELD: the normalizer could not find a field the
//     graph needs (destination, store references). Fatal to that result.
//   - INVALID_RESULT: the prediction result is structurally contradictory
//     (for example a selected hub score without a hub).
//   - INSUFFICIENT_GRAPH_DATA: assembly produced fewer than two nodes.
//     Recoverable through the fallback graph.
//   - UNPARSEABLE_TIMESTAMP: a timestamp could not be parsed. Recovered
//     locally as "N/A".
//   - NETWORK_ERROR / TIMEOUT: the prediction call failed. Terminal for
//     the current request.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingField, "missing required field %q", "request.postal_code")
//	if errors.Is(err, errors.ErrCodeMissingField) {
//	    // Fall back to the minimal summary view
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "prediction call to %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Prediction result errors
	ErrCodeMissingField          Code = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidResult         Code = "INVALID_RESULT"
	ErrCodeInsufficientGraphData Code = "INSUFFICIENT_GRAPH_DATA"
	ErrCodeUnparseableTimestamp  Code = "UNPARSEABLE_TIMESTAMP"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Field   string // Offending field, set for MISSING_REQUIRED_FIELD
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// MissingField reports a structurally required field that is absent from a
// prediction result.
func MissingField(field string) *Error {
	return &Error{
		Code:    ErrCodeMissingField,
		Message: fmt.Sprintf("missing required field %q", field),
		Field:   field,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// FieldOf returns the offending field of a MISSING_REQUIRED_FIELD error,
// or "" for any other error.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsTerminal reports whether err must abort the current request instead of
// degrading to a smaller representation. Only network-layer failures are
// terminal.
func IsTerminal(err error) bool {
	switch GetCode(err) {
	case ErrCodeNetwork, ErrCodeTimeout:
		return true
	}
	return false
}
