package errors

import (
	"fmt"
)

// ParaError is the structured error type for paragraf.
// It provides rich context for error handling, logging, and user presentation.
type ParaError struct {
	// Code is the unique error code (e.g., "ERR_402_EMPTY_CORPUS").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	// By convention builds and searches attach "collection", "kind" and
	// "operation" so callers can retry a narrower operation.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *ParaError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ParaError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with ParaError.
func (e *ParaError) Is(target error) bool {
	if t, ok := target.(*ParaError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *ParaError) WithDetail(key, value string) *ParaError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new ParaError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *ParaError {
	return &ParaError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Newf creates a new ParaError with a formatted message and no cause.
func Newf(code string, format string, args ...any) *ParaError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates a ParaError from an existing error.
// The error's message becomes the ParaError message.
func Wrap(code string, err error) *ParaError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Wrapf creates a ParaError from an existing error with a formatted
// context message. The original error stays reachable via Unwrap.
func Wrapf(code string, err error, format string, args ...any) *ParaError {
	if err == nil {
		return nil
	}
	return New(code, fmt.Sprintf(format, args...)+": "+err.Error(), err)
}

// DimensionMismatch creates the fatal error for a vector whose length
// does not match the store's dimensionality.
func DimensionMismatch(expected, got int) *ParaError {
	return Newf(ErrCodeDimensionMismatch, "vector dimension mismatch: expected %d, got %d", expected, got)
}

// QueryError creates an invalid-query error.
func QueryError(message string, cause error) *ParaError {
	return New(ErrCodeInvalidQuery, message, cause)
}

// EmptyCorpus creates the fatal build error for a zero-eligible-document
// batch. Builds must never produce a silently empty index.
func EmptyCorpus(collection string) *ParaError {
	return Newf(ErrCodeEmptyCorpus, "no indexable documents in batch").
		WithDetail("collection", collection)
}

// NoContent creates the fatal build error for a chunked index whose
// source documents carry no body text at all.
func NoContent(collection string) *ParaError {
	return Newf(ErrCodeNoContent, "no body text in batch, nothing to chunk").
		WithDetail("collection", collection)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a ParaError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*ParaError); ok {
		return pe.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*ParaError); ok {
		return pe.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a ParaError.
// Returns empty string if not a ParaError.
func GetCode(err error) string {
	if pe, ok := err.(*ParaError); ok {
		return pe.Code
	}
	return ""
}
