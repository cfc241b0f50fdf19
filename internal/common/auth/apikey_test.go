// internal/common/auth/apikey_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "tender-estimator/internal/common/errors"
)

func TestAPIKeyValidator_Validate(t *testing.T) {
	validator := NewAPIKeyValidator(map[string]string{
		"portal":  "key-portal-1234",
		"backend": "key-backend-5678",
	})

	tests := []struct {
		name           string
		presented      string
		expectedCaller string
		expectError    bool
	}{
		{name: "valid portal key", presented: "key-portal-1234", expectedCaller: "portal"},
		{name: "valid backend key", presented: "key-backend-5678", expectedCaller: "backend"},
		{name: "empty key", presented: "", expectError: true},
		{name: "unknown key", presented: "key-portal-0000", expectError: true},
		{name: "truncated key", presented: "key-portal", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller, err := validator.Validate(tt.presented)

			if tt.expectError {
				require.Error(t, err)
				assert.True(t, stderrors.IsFatal(err))
				assert.Empty(t, caller)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCaller, caller)
		})
	}
}

func TestAPIKeyValidator_NoKeysConfigured(t *testing.T) {
	validator := NewAPIKeyValidator(nil)

	caller, err := validator.Validate("any-key")

	require.Error(t, err)
	assert.Empty(t, caller)
}
