package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Common sentinel errors for quick checks
var (
	// ErrLoadSpecFailed is returned when a chain specification cannot be read or parsed.
	ErrLoadSpecFailed = errors.New("load spec failed")

	// ErrTopologyUnavailable is returned when the shard topology cannot be determined.
	ErrTopologyUnavailable = errors.New("shard topology unavailable")

	// ErrInvalidInput is returned when configuration input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timeout")

	// ErrServiceUnavailable is returned when a required service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInternal is returned when an internal error occurs.
	ErrInternal = errors.New("internal error")
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
			stack:   captureStack(1),
		},
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// ConfigError represents a configuration or logic error. It is always fatal.
type ConfigError struct {
	*BaseError
	Key string
}

// NewConfigError creates a new configuration error.
func NewConfigError(key, message string, cause error) *ConfigError {
	if message == "" {
		message = "invalid configuration"
	}
	return &ConfigError{
		BaseError: &BaseError{
			code:    CodeConfigError,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Key: key,
	}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := e.message
	if e.Key != "" {
		msg = fmt.Sprintf("%s: %s", e.Key, e.message)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// LoadSpecError is returned when a chain specification is absent or unparsable.
type LoadSpecError struct {
	*BaseError
	Path string
}

// NewLoadSpecError creates a new load spec error for the given path or id.
func NewLoadSpecError(path string, cause error) *LoadSpecError {
	return &LoadSpecError{
		BaseError: &BaseError{
			code:    CodeLoadSpecFailed,
			message: "load spec failed",
			cause:   cause,
			stack:   captureStack(1),
		},
		Path: path,
	}
}

// Error implements the error interface.
func (e *LoadSpecError) Error() string {
	msg := e.message
	if e.Path != "" {
		msg = fmt.Sprintf("load spec failed (%s)", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Is reports whether target is ErrLoadSpecFailed.
func (e *LoadSpecError) Is(target error) bool {
	return target == ErrLoadSpecFailed
}

// TopologyError is returned when the initial-info provider cannot determine
// the shard topology.
type TopologyError struct {
	*BaseError
	RequestedShard uint16
}

// NewTopologyError creates a new topology error.
func NewTopologyError(requested uint16, message string, cause error) *TopologyError {
	if message == "" {
		message = "shard topology unavailable"
	}
	return &TopologyError{
		BaseError: &BaseError{
			code:    CodeTopologyUnavailable,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		RequestedShard: requested,
	}
}

// Error implements the error interface.
func (e *TopologyError) Error() string {
	msg := fmt.Sprintf("%s (requested shard %d)", e.message, e.RequestedShard)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Is reports whether target is ErrTopologyUnavailable.
func (e *TopologyError) Is(target error) bool {
	return target == ErrTopologyUnavailable
}

// InternalError represents an internal error.
type InternalError struct {
	*BaseError
	Operation string
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *InternalError {
	if message == "" {
		message = "internal error"
	}
	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
	}
}

// WithOperation sets the operation context.
func (e *InternalError) WithOperation(op string) *InternalError {
	e.Operation = op
	return e
}

// ServiceError represents an unavailable external dependency: a router,
// a network host or the root-chain light service.
type ServiceError struct {
	*BaseError
	Service string
}

// NewServiceError creates a new service error.
func NewServiceError(service, message string, cause error) *ServiceError {
	if message == "" {
		message = fmt.Sprintf("%s unavailable", service)
	}
	return &ServiceError{
		BaseError: &BaseError{
			code:    CodeServiceUnavailable,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Service: service,
	}
}

// TimeoutError represents a timeout error.
type TimeoutError struct {
	*BaseError
	Operation string
	Duration  string
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(operation, duration string) *TimeoutError {
	message := "operation timeout"
	if operation != "" {
		message = fmt.Sprintf("%s timeout", operation)
	}
	return &TimeoutError{
		BaseError: &BaseError{
			code:    CodeTimeout,
			message: message,
			stack:   captureStack(1),
		},
		Operation: operation,
		Duration:  duration,
	}
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the code
// and adds the cause chain. Otherwise, it creates an InternalError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var e Error
	if errors.As(err, &e) {
		return &BaseError{
			code:    e.Code(),
			message: message,
			cause:   err,
			stack:   captureStack(1),
		}
	}

	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   err,
			stack:   captureStack(1),
		},
	}
}

// New creates a new error with a message.
func New(message string) error {
	return &BaseError{
		code:    CodeInternal,
		message: message,
		stack:   captureStack(1),
	}
}
