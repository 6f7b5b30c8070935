package errors

import "errors"

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsConfig checks if an error is a configuration error.
func IsConfig(err error) bool {
	if err == nil {
		return false
	}

	var configErr *ConfigError
	return errors.As(err, &configErr) || errors.Is(err, ErrInvalidInput)
}

// IsLoadSpecFailed checks if an error indicates the chain spec could not be loaded.
func IsLoadSpecFailed(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrLoadSpecFailed)
}

// IsTopologyUnavailable checks if an error indicates shard topology resolution failed.
func IsTopologyUnavailable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTopologyUnavailable)
}

// IsTimeout checks if an error indicates a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr) || errors.Is(err, ErrTimeout)
}

// IsServiceUnavailable checks if an error indicates a service is unavailable.
func IsServiceUnavailable(err error) bool {
	if err == nil {
		return false
	}

	var serviceErr *ServiceError
	return errors.As(err, &serviceErr) || errors.Is(err, ErrServiceUnavailable)
}

// IsInternal checks if an error is an internal error.
func IsInternal(err error) bool {
	if err == nil {
		return false
	}

	var internalErr *InternalError
	return errors.As(err, &internalErr) || errors.Is(err, ErrInternal)
}

// IsFatal reports whether err must abort the startup pipeline.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return IsFatalCode(GetErrorCode(err))
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}

	// Try to infer from sentinel errors
	switch {
	case IsLoadSpecFailed(err):
		return CodeLoadSpecFailed
	case IsTopologyUnavailable(err):
		return CodeTopologyUnavailable
	case IsTimeout(err):
		return CodeTimeout
	case IsServiceUnavailable(err):
		return CodeServiceUnavailable
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}

// GetErrorMessage extracts a human-readable message from an error.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Message()
	}

	return err.Error()
}

// StackTrace returns the stack captured by the outermost typed error in the
// chain, or "".
func StackTrace(err error) string {
	var traced interface{ StackTrace() string }
	if errors.As(err, &traced) {
		return traced.StackTrace()
	}
	return ""
}
