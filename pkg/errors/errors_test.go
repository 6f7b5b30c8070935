package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name          string
		field         string
		message       string
		value         interface{}
		expectedError string
	}{
		{
			name:          "with field",
			field:         "root_port",
			message:       "must be between 1 and 65535",
			value:         0,
			expectedError: "validation error: root_port: must be between 1 and 65535",
		},
		{
			name:          "without field",
			field:         "",
			message:       "invalid input",
			value:         nil,
			expectedError: "validation error: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error %q, got %q", tt.expectedError, err.Error())
			}
			if err.Code() != CodeValidation {
				t.Errorf("Expected code %q, got %q", CodeValidation, err.Code())
			}
			if err.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, err.Field)
			}
		})
	}
}

func TestLoadSpecError(t *testing.T) {
	cause := errors.New("open /data/conf/root-chain-spec.json: no such file or directory")
	err := NewLoadSpecError("/data/conf/root-chain-spec.json", cause)

	if err.Code() != CodeLoadSpecFailed {
		t.Errorf("Expected code %q, got %q", CodeLoadSpecFailed, err.Code())
	}
	if !errors.Is(err, ErrLoadSpecFailed) {
		t.Errorf("Expected errors.Is(err, ErrLoadSpecFailed)")
	}
	if !strings.HasPrefix(err.Error(), "load spec failed (/data/conf/root-chain-spec.json)") {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if err.Unwrap() != cause {
		t.Errorf("Expected cause to be preserved")
	}
}

func TestTopologyError(t *testing.T) {
	err := NewTopologyError(3, "", nil)

	if err.Error() != "shard topology unavailable (requested shard 3)" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrTopologyUnavailable) {
		t.Errorf("Expected errors.Is(err, ErrTopologyUnavailable)")
	}
	if errors.Is(err, ErrLoadSpecFailed) {
		t.Errorf("Topology error must not match ErrLoadSpecFailed")
	}
}

func TestConfigError(t *testing.T) {
	t.Run("with key and cause", func(t *testing.T) {
		cause := errors.New("unknown field")
		err := NewConfigError("logging.level", "bad value", cause)
		if err.Error() != "logging.level: bad value: unknown field" {
			t.Errorf("Unexpected message %q", err.Error())
		}
	})

	t.Run("default message", func(t *testing.T) {
		err := NewConfigError("", "", nil)
		if err.Error() != "invalid configuration" {
			t.Errorf("Unexpected message %q", err.Error())
		}
	})
}

func TestInternalError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewInternalError("failed to save head", cause)

		if err.Message() != "failed to save head" {
			t.Errorf("Expected message 'failed to save head', got %q", err.Message())
		}
		if err.Unwrap() != cause {
			t.Errorf("Expected cause to be preserved")
		}
		if !strings.Contains(err.Error(), "disk full") {
			t.Errorf("Expected error to contain cause: %q", err.Error())
		}
	})

	t.Run("with operation", func(t *testing.T) {
		err := NewInternalError("operation failed", nil).WithOperation("importHead")
		if err.Operation != "importHead" {
			t.Errorf("Expected operation 'importHead', got %q", err.Operation)
		}
	})
}

func TestServiceError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewServiceError("bootnodes-router", "", cause)

	if err.Service != "bootnodes-router" {
		t.Errorf("Expected service 'bootnodes-router', got %q", err.Service)
	}
	if err.Message() != "bootnodes-router unavailable" {
		t.Errorf("Unexpected default message %q", err.Message())
	}
	if err.Unwrap() != cause {
		t.Errorf("Expected cause to be preserved")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("bootnodes fetch", "5s")

	if err.Operation != "bootnodes fetch" {
		t.Errorf("Expected operation 'bootnodes fetch', got %q", err.Operation)
	}
	if err.Duration != "5s" {
		t.Errorf("Expected duration '5s', got %q", err.Duration)
	}
	if !strings.Contains(err.Message(), "timeout") {
		t.Errorf("Expected message to contain 'timeout': %q", err.Message())
	}
}

func TestWrap(t *testing.T) {
	t.Run("wrap standard error", func(t *testing.T) {
		original := errors.New("original error")
		wrapped := Wrap(original, "additional context")

		if !strings.Contains(wrapped.Error(), "additional context") {
			t.Errorf("Expected wrapped error to contain context: %q", wrapped.Error())
		}
		if !errors.Is(wrapped, original) {
			t.Errorf("Expected wrapped error to preserve original error")
		}
		if GetErrorCode(wrapped) != CodeInternal {
			t.Errorf("Expected internal code, got %s", GetErrorCode(wrapped))
		}
	})

	t.Run("wrap custom error keeps code", func(t *testing.T) {
		original := NewTopologyError(1, "", nil)
		wrapped := Wrap(original, "resolve root chain topology")

		if errors.Unwrap(wrapped) != original {
			t.Errorf("Expected wrapped error to preserve original error")
		}
		if GetErrorCode(wrapped) != CodeTopologyUnavailable {
			t.Errorf("Expected code to survive wrapping, got %s", GetErrorCode(wrapped))
		}
		if !IsTopologyUnavailable(wrapped) {
			t.Errorf("Expected IsTopologyUnavailable through wrap")
		}
	})

	t.Run("wrap nil error", func(t *testing.T) {
		if wrapped := Wrap(nil, "context"); wrapped != nil {
			t.Errorf("Expected Wrap(nil) to return nil, got %v", wrapped)
		}
	})
}

func TestErrorChaining(t *testing.T) {
	root := errors.New("root cause")
	level1 := Wrap(root, "level 1")
	level2 := Wrap(level1, "level 2")
	level3 := Wrap(level2, "level 3")

	if !errors.Is(level3, root) {
		t.Errorf("Expected error chain to preserve root cause")
	}

	unwrapped := errors.Unwrap(level3)
	if unwrapped != level2 {
		t.Errorf("Expected first unwrap to return level2")
	}

	unwrapped = errors.Unwrap(unwrapped)
	if unwrapped != level1 {
		t.Errorf("Expected second unwrap to return level1")
	}
}

func TestStackTrace(t *testing.T) {
	err := NewInternalError("test error", nil)

	if len(err.Stack()) == 0 {
		t.Errorf("Expected stack trace to be captured")
	}

	trace := err.StackTrace()
	if !strings.Contains(trace, "TestStackTrace") {
		t.Errorf("Expected stack trace to contain test function name: %s", trace)
	}
}

func TestNew(t *testing.T) {
	err := New("test error")

	if err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got %q", err.Error())
	}

	var customErr Error
	if !errors.As(err, &customErr) {
		t.Errorf("Expected New() to return an Error interface")
	}
}
