// Package errors defines the typed errors shared by every layer and their
// mapping onto HTTP responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType classifies an error by who is at fault
type ErrorType string

const (
	// Caller faults
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"

	// Server faults
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
	ErrorTypeDatabase    ErrorType = "DATABASE"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:  http.StatusBadRequest,
	ErrorTypeNotFound:    http.StatusNotFound,
	ErrorTypeConflict:    http.StatusConflict,
	ErrorTypeInternal:    http.StatusInternalServerError,
	ErrorTypeUnavailable: http.StatusServiceUnavailable,
	ErrorTypeDatabase:    http.StatusInternalServerError,
}

// AppError is an error with a stable code and an HTTP status
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func newError(errType ErrorType, code, message string) *AppError {
	e := &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		HTTPStatus: statusByType[errType],
	}
	// Only server faults are worth a stack trace
	if e.HTTPStatus >= http.StatusInternalServerError {
		e.StackTrace = captureStackTrace()
	}
	return e
}

func (e *AppError) Error() string {
	label := e.Code
	if label == "" {
		label = string(e.Type)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", label, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", label, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError by code, so sentinel comparisons work with errors.Is
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithCode replaces the error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetail adds a single detail entry
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func captureStackTrace() string {
	var pcs [32]uintptr
	// Skip runtime.Callers, captureStackTrace and newError
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var stack strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&stack, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack.String()
}

// NewValidationError creates an INVALID_INPUT error
func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, CodeInvalidInput, message)
}

// NewNotFoundError creates a not found error for resource
func NewNotFoundError(resource string) *AppError {
	return newError(ErrorTypeNotFound, "", resource+" not found")
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return newError(ErrorTypeConflict, "", message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return newError(ErrorTypeInternal, "", message)
}

// NewUnavailableError reports a dependency that is refusing work
func NewUnavailableError(service string) *AppError {
	return newError(ErrorTypeUnavailable, "", fmt.Sprintf("%s is unavailable", service))
}

// NewDatabaseError wraps a store failure during operation
func NewDatabaseError(operation string, err error) *AppError {
	return newError(ErrorTypeDatabase, CodeDatabaseError, fmt.Sprintf("%s failed", operation)).WithCause(err)
}

// GetAppError extracts the first AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return IsType(err, ErrorTypeInternal)
}

// Code returns the error code carried by err, or "" when err is not an AppError
func Code(err error) string {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

// Wrap adds context to err. AppErrors keep their type and code; anything
// else becomes an internal error.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if GetAppError(err) != nil {
		return fmt.Errorf("%s: %w", message, err)
	}
	return NewInternalError(message).WithCause(err)
}
