package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatTransport  ErrorCategory = "transport"  // Vendor unreachable / non-2xx
	ErrCatProtocol   ErrorCategory = "protocol"   // Malformed vendor response
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatState      ErrorCategory = "state"      // Session state conflict
	ErrCatConflict   ErrorCategory = "conflict"   // Concurrent modification
	ErrCatAuth       ErrorCategory = "auth"       // Vendor token failure
	ErrCatTimeout    ErrorCategory = "timeout"    // Operation timed out
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrTransport creates a transport error for a failed vendor round trip.
func ErrTransport(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTransport,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrProtocol creates a protocol error for a vendor response that could not be decoded.
func ErrProtocol(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatProtocol,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      "NOT_FOUND",
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrAuth creates an authentication error.
func ErrAuth(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatAuth,
		Code:      "AUTH_FAILED",
		Message:   message,
		Retryable: false,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: true,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeModelCreateFailed = "MODEL_CREATE_FAILED"
	CodeDefinitionFetch   = "DEFINITION_FETCH_FAILED"
	CodeCommandRejected   = "COMMAND_REJECTED"
	CodeMissingResult     = "MISSING_RESULT"
	CodeUnknownWidget     = "UNKNOWN_WIDGET"
	CodeUnknownOption     = "UNKNOWN_OPTION"
	CodeHashMismatch      = "COMPATIBILITY_HASH_MISMATCH"
	CodeInvalidDimension  = "INVALID_DIMENSION"
	CodeInvalidImageType  = "INVALID_IMAGE_TYPE"
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeStoreCorrupted    = "STORE_CORRUPTED"
	CodeEmptyModelCode    = "EMPTY_MODEL_CODE"
	CodeFallbackMode      = "FALLBACK_MODE"
)
