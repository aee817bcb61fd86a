package errors

import (
	"fmt"
)

// Error codes surfaced by the graph builder
const (
	CodeUnknownStrategy    = "UNKNOWN_STRATEGY"
	CodeGraphNotFound      = "GRAPH_NOT_FOUND"
	CodeTopicNotFound      = "TOPIC_NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeDuplicateRecord    = "DUPLICATE_RECORD"
)

// Sentinels for errors.Is comparisons; they match on code only.
var (
	ErrUnknownStrategy    = &AppError{Code: CodeUnknownStrategy}
	ErrGraphNotFound      = &AppError{Code: CodeGraphNotFound}
	ErrTopicNotFound      = &AppError{Code: CodeTopicNotFound}
	ErrInvalidInput       = &AppError{Code: CodeInvalidInput}
	ErrInvariantViolation = &AppError{Code: CodeInvariantViolation}
	ErrStoreUnavailable   = &AppError{Code: CodeStoreUnavailable}
)

// UnknownStrategy reports a strategy name that is not registered
func UnknownStrategy(name string) *AppError {
	return newError(ErrorTypeValidation, CodeUnknownStrategy, fmt.Sprintf("unknown relationship strategy %q", name)).
		WithDetail("strategy", name)
}

// GraphNotFound reports a graph identifier with no backing record
func GraphNotFound(graphID string) *AppError {
	return newError(ErrorTypeNotFound, CodeGraphNotFound, fmt.Sprintf("Graph with ID %s not found", graphID)).
		WithDetail("graphId", graphID)
}

// TopicNotFound reports a topic identifier absent from the given graph
func TopicNotFound(topicID string) *AppError {
	return newError(ErrorTypeNotFound, CodeTopicNotFound, fmt.Sprintf("Topic with ID %s not found", topicID)).
		WithDetail("topicId", topicID)
}

// InvalidInput reports a request that breaks an input constraint
func InvalidInput(format string, args ...interface{}) *AppError {
	return NewValidationError(fmt.Sprintf(format, args...))
}

// InvariantViolation reports internal state that must never occur
func InvariantViolation(format string, args ...interface{}) *AppError {
	return newError(ErrorTypeInternal, CodeInvariantViolation, fmt.Sprintf(format, args...))
}

// StoreUnavailable reports a store that is refusing work, e.g. behind an open circuit
func StoreUnavailable(store string, cause error) *AppError {
	return newError(ErrorTypeUnavailable, CodeStoreUnavailable, fmt.Sprintf("store %s is unavailable", store)).WithCause(cause)
}

// DuplicateRecord reports a uniqueness constraint rejected by the store
func DuplicateRecord(resource string, cause error) *AppError {
	return newError(ErrorTypeConflict, CodeDuplicateRecord, fmt.Sprintf("%s already exists", resource)).WithCause(cause)
}
