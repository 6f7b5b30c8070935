package errors

import "testing"

func TestGetCategory(t *testing.T) {
	tests := []struct {
		code             string
		expectedCategory ErrorCategory
	}{
		{CodeInvalidArgument, CategoryConfig},
		{CodeValidation, CategoryConfig},
		{CodeConfigError, CategoryConfig},
		{CodeUnimplemented, CategoryConfig},

		{CodeLoadSpecFailed, CategoryExternal},
		{CodeTopologyUnavailable, CategoryExternal},
		{CodeTimeout, CategoryExternal},
		{CodeServiceUnavailable, CategoryExternal},
		{CodeNetworkError, CategoryExternal},
		{CodeStorageError, CategoryExternal},

		{CodeInternal, CategoryInternal},
		{CodeCancelled, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			category := GetCategory(tt.code)
			if category != tt.expectedCategory {
				t.Errorf("Code %s: expected category %s, got %s", tt.code, tt.expectedCategory, category)
			}
		})
	}
}

func TestIsFatalCode(t *testing.T) {
	tests := []struct {
		code  string
		fatal bool
	}{
		{CodeConfigError, true},
		{CodeValidation, true},
		{CodeLoadSpecFailed, true},
		{CodeTopologyUnavailable, true},
		{CodeServiceUnavailable, false},
		{CodeTimeout, false},
		{CodeNetworkError, false},
		{CodeStorageError, false},
		{CodeInternal, true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := IsFatalCode(tt.code); got != tt.fatal {
				t.Errorf("IsFatalCode(%s) = %v, want %v", tt.code, got, tt.fatal)
			}
		})
	}
}
