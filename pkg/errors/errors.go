package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType classifies an AppError and decides its HTTP status
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeTooManyNodes ErrorType = "TOO_MANY_NODES"

	ErrorTypeInternal  ErrorType = "INTERNAL"
	ErrorTypeTimeout   ErrorType = "TIMEOUT"
	ErrorTypeRateLimit ErrorType = "RATE_LIMIT"

	// metadata store failures
	ErrorTypeDatabase ErrorType = "DATABASE"
)

// Status returns the HTTP status reported for errors of this type
func (t ErrorType) Status() int {
	switch t {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeTimeout:
		return http.StatusRequestTimeout
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		// TooManyNodes is a failure to visualize, not a client mistake
		return http.StatusInternalServerError
	}
}

// AppError is the error type returned across the application boundary
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches structured details to the error
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause records the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func newAppError(t ErrorType, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		HTTPStatus: t.Status(),
		StackTrace: captureStackTrace(),
	}
}

func captureStackTrace() string {
	var pcs [32]uintptr
	// skip runtime.Callers, captureStackTrace, newAppError and the exported constructor
	n := runtime.Callers(4, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, message)
}

func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, resource+" not found")
}

// NewTooManyNodesError creates the error returned when a lineage graph outgrows its node cap
func NewTooManyNodesError(seed string, limit int) *AppError {
	return newAppError(ErrorTypeTooManyNodes,
		fmt.Sprintf("lineage graph of %s has more than %d nodes and cannot be visualized", seed, limit))
}

func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, message)
}

func NewTimeoutError(operation string) *AppError {
	return newAppError(ErrorTypeTimeout, fmt.Sprintf("operation '%s' timed out", operation))
}

func NewRateLimitError(limit float64, burst int) *AppError {
	return newAppError(ErrorTypeRateLimit,
		fmt.Sprintf("rate limit exceeded: %g requests per second (burst %d)", limit, burst))
}

// NewDatabaseError wraps a metadata store failure
func NewDatabaseError(operation string, err error) *AppError {
	return newAppError(ErrorTypeDatabase,
		fmt.Sprintf("metadata store operation '%s' failed", operation)).WithCause(err)
}

// GetAppError extracts the first AppError of an error chain, or nil
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType reports whether err carries an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func IsNotFound(err error) bool     { return IsType(err, ErrorTypeNotFound) }
func IsValidation(err error) bool   { return IsType(err, ErrorTypeValidation) }
func IsTooManyNodes(err error) bool { return IsType(err, ErrorTypeTooManyNodes) }
func IsDatabase(err error) bool     { return IsType(err, ErrorTypeDatabase) }
func IsInternal(err error) bool     { return IsType(err, ErrorTypeInternal) }
