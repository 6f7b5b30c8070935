package errors

// Error codes for categorizing errors.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeCancelled indicates the operation was cancelled.
	CodeCancelled = "CANCELLED"

	// CodeInvalidArgument indicates an invalid argument was supplied.
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// CodeDeadlineExceeded indicates operation deadline was exceeded.
	CodeDeadlineExceeded = "DEADLINE_EXCEEDED"

	// CodeUnimplemented indicates operation is not implemented or not supported.
	CodeUnimplemented = "UNIMPLEMENTED"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"

	// Domain-specific error codes

	// CodeValidation indicates input validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeConfigError indicates a configuration error.
	CodeConfigError = "CONFIG_ERROR"

	// CodeLoadSpecFailed indicates a chain specification could not be loaded.
	CodeLoadSpecFailed = "LOAD_SPEC_FAILED"

	// CodeTopologyUnavailable indicates the shard topology could not be resolved.
	CodeTopologyUnavailable = "TOPOLOGY_UNAVAILABLE"

	// CodeTimeout indicates an operation timed out.
	CodeTimeout = "TIMEOUT"

	// CodeServiceUnavailable indicates a downstream service is unavailable.
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// CodeNetworkError indicates a network operation failed.
	CodeNetworkError = "NETWORK_ERROR"

	// CodeStorageError indicates a storage operation failed.
	CodeStorageError = "STORAGE_ERROR"

	// CodeSerializationError indicates serialization/deserialization failed.
	CodeSerializationError = "SERIALIZATION_ERROR"
)

// ErrorCategory represents a high-level error category.
type ErrorCategory string

const (
	// CategoryConfig is a configuration or logic error. Always fatal.
	CategoryConfig ErrorCategory = "CONFIG_ERROR"

	// CategoryExternal is an unavailable external dependency.
	CategoryExternal ErrorCategory = "EXTERNAL_ERROR"

	// CategoryInternal is anything else.
	CategoryInternal ErrorCategory = "INTERNAL_ERROR"
)

// GetCategory returns the category for an error code.
func GetCategory(code string) ErrorCategory {
	switch code {
	case CodeInvalidArgument, CodeValidation, CodeConfigError, CodeUnimplemented:
		return CategoryConfig

	case CodeLoadSpecFailed, CodeTopologyUnavailable,
		CodeTimeout, CodeDeadlineExceeded,
		CodeServiceUnavailable, CodeNetworkError,
		CodeStorageError, CodeSerializationError:
		return CategoryExternal

	default:
		return CategoryInternal
	}
}

// IsFatalCode reports whether an error with the given code must abort startup.
// Configuration errors always do; of the external ones only spec loading and
// topology resolution do.
func IsFatalCode(code string) bool {
	switch GetCategory(code) {
	case CategoryConfig:
		return true
	case CategoryExternal:
		return code == CodeLoadSpecFailed || code == CodeTopologyUnavailable
	default:
		return true
	}
}
