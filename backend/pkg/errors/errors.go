package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeSnapshot represents malformed or unusable hypergraph payloads
	ErrorTypeSnapshot ErrorType = "snapshot"
	// ErrorTypeAPI represents backend HTTP request errors
	ErrorTypeAPI ErrorType = "api"
	// ErrorTypeAdjust represents rejected adjustment submissions
	ErrorTypeAdjust ErrorType = "adjust"
	// ErrorTypeStore represents hypergraph store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeRender represents failures in the layout/draw path
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeAgent represents LLM-related errors
	ErrorTypeAgent ErrorType = "agent"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Base exposes the common fields. Promotion makes every typed error in this
// package satisfy interface{ Base() *BaseError }.
func (e *BaseError) Base() *BaseError {
	return e
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Snapshot Errors

// ErrSnapshotInvalid is returned when a hypergraph payload cannot be used at all
type ErrSnapshotInvalid struct {
	*BaseError
	Reason string
}

func NewSnapshotInvalid(reason string, err error) *ErrSnapshotInvalid {
	return &ErrSnapshotInvalid{
		BaseError: NewBaseError(ErrorTypeSnapshot, fmt.Sprintf("invalid snapshot: %s", reason), err),
		Reason:    reason,
	}
}

// API Errors

// ErrAPIRequestFailed is returned when a backend request fails or returns non-2xx
type ErrAPIRequestFailed struct {
	*BaseError
	Endpoint   string
	StatusCode int // 0 when the request never completed
}

func NewAPIRequestFailed(endpoint string, statusCode int, err error) *ErrAPIRequestFailed {
	return &ErrAPIRequestFailed{
		BaseError:  NewBaseError(ErrorTypeAPI, fmt.Sprintf("request failed: %s", endpoint), err),
		Endpoint:   endpoint,
		StatusCode: statusCode,
	}
}

// ErrAPIUnavailable is returned when the circuit breaker is refusing calls
type ErrAPIUnavailable struct {
	*BaseError
	Endpoint string
}

func NewAPIUnavailable(endpoint string, err error) *ErrAPIUnavailable {
	return &ErrAPIUnavailable{
		BaseError: NewBaseError(ErrorTypeAPI, fmt.Sprintf("backend unavailable: %s", endpoint), err),
		Endpoint:  endpoint,
	}
}

// Adjustment Errors

// ErrAdjustRejected is returned when the backend refuses an adjustment.
// ServerMessage carries the backend's own explanation for display to the user.
type ErrAdjustRejected struct {
	*BaseError
	ElementID     string
	ElementType   string
	StatusCode    int
	ServerMessage string
}

func NewAdjustRejected(elementID, elementType string, statusCode int, serverMessage string) *ErrAdjustRejected {
	return &ErrAdjustRejected{
		BaseError:     NewBaseError(ErrorTypeAdjust, fmt.Sprintf("adjustment rejected for %s %s: %s", elementType, elementID, serverMessage), nil),
		ElementID:     elementID,
		ElementType:   elementType,
		StatusCode:    statusCode,
		ServerMessage: serverMessage,
	}
}

// Store Errors

// ErrElementNotFound is returned when a node or hyperedge id is unknown
type ErrElementNotFound struct {
	*BaseError
	ElementID   string
	ElementType string
}

func NewElementNotFound(elementID, elementType string) *ErrElementNotFound {
	return &ErrElementNotFound{
		BaseError:   NewBaseError(ErrorTypeStore, fmt.Sprintf("%s not found: %s", elementType, elementID), nil),
		ElementID:   elementID,
		ElementType: elementType,
	}
}

// ErrValueOutOfRange is returned when a relevance or weight falls outside [0, 1]
type ErrValueOutOfRange struct {
	*BaseError
	Field string
	Value float64
}

func NewValueOutOfRange(field string, value float64) *ErrValueOutOfRange {
	return &ErrValueOutOfRange{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("%s must be between 0 and 1, got %g", field, value), nil),
		Field:     field,
		Value:     value,
	}
}

// ErrStoreQueryFailed is returned when a store operation fails
type ErrStoreQueryFailed struct {
	*BaseError
	Operation string
}

func NewStoreQueryFailed(operation string, err error) *ErrStoreQueryFailed {
	return &ErrStoreQueryFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("store operation failed: %s", operation), err),
		Operation: operation,
	}
}

// Render Errors

// ErrRenderFailed is returned when the layout or draw path panics or errors
type ErrRenderFailed struct {
	*BaseError
	Stage string
}

func NewRenderFailed(stage string, err error) *ErrRenderFailed {
	return &ErrRenderFailed{
		BaseError: NewBaseError(ErrorTypeRender, fmt.Sprintf("render failed during %s", stage), err),
		Stage:     stage,
	}
}

// Agent Errors

// ErrAgentLLMFailed is returned when the LLM request fails after retries
type ErrAgentLLMFailed struct {
	*BaseError
	Model    string
	Attempts int
}

func NewAgentLLMFailed(model string, attempts int, err error) *ErrAgentLLMFailed {
	return &ErrAgentLLMFailed{
		BaseError: NewBaseError(ErrorTypeAgent, fmt.Sprintf("LLM request failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if typed, ok := err.(interface{ Base() *BaseError }); ok {
		return typed.Base().Type == errType
	}
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		if inner := wrapped.Unwrap(); inner != nil {
			return IsErrorType(inner, errType)
		}
	}
	return false
}

// UserMessage extracts the message to surface in a notification. Adjustment
// rejections carry the backend's own wording; everything else falls back to
// the error string.
func UserMessage(err error) string {
	for e := err; e != nil; {
		if rejected, ok := e.(*ErrAdjustRejected); ok && rejected.ServerMessage != "" {
			return rejected.ServerMessage
		}
		wrapped, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = wrapped.Unwrap()
	}
	return err.Error()
}
