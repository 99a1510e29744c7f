package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/hrygo/confagenda/store"
)

// ErrorCode represents a specific error type for agenda operations.
type ErrorCode string

const (
	// ErrCodeNotFound indicates an unknown agenda, version or session, or an ownership mismatch.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeVersionConflict indicates a concurrent writer moved the agenda first.
	ErrCodeVersionConflict ErrorCode = "VERSION_CONFLICT"
	// ErrCodeUnavailable indicates a dependency such as the catalog is not available.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AgendaError represents a structured error for agenda operations.
type AgendaError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AgendaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AgendaError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AgendaError) WithContext(key string, value interface{}) *AgendaError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *AgendaError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *AgendaError {
	return &AgendaError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AgendaError {
	return &AgendaError{Code: ErrCodeInvalidArgument, Message: msg}
}

// VersionConflict creates a version conflict error.
func VersionConflict(msg string, cause error) *AgendaError {
	return &AgendaError{Code: ErrCodeVersionConflict, Message: msg, Cause: cause}
}

// Unavailable creates a service unavailable error.
func Unavailable(msg string, cause error) *AgendaError {
	return &AgendaError{Code: ErrCodeUnavailable, Message: msg, Cause: cause}
}

// Internal creates an internal error.
func Internal(msg string, cause error) *AgendaError {
	return &AgendaError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *AgendaError {
	return &AgendaError{Code: code, Message: msg, Cause: cause}
}

// FromStore translates store sentinels into coded errors.
// Errors that are already coded pass through unchanged.
func FromStore(err error, msg string) error {
	if err == nil {
		return nil
	}
	var agendaErr *AgendaError
	if stderrors.As(err, &agendaErr) {
		return err
	}
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		return Wrap(err, ErrCodeNotFound, msg)
	case stderrors.Is(err, store.ErrVersionConflict), stderrors.Is(err, store.ErrActiveAgendaConflict):
		return Wrap(err, ErrCodeVersionConflict, msg)
	default:
		return Wrap(err, ErrCodeInternal, msg)
	}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	return GetCodeFromError(err, "") == code
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an AgendaError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var agendaErr *AgendaError
	if stderrors.As(err, &agendaErr) {
		return agendaErr.Code
	}
	return defaultCode
}
