package sources

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGetAzureErrorSuggestion tests error suggestion mapping for Azure errors.
func TestGetAzureErrorSuggestion(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "forbidden suggests access policies",
			err:      errors.New("403 Forbidden: caller is not authorized"),
			contains: "access policies",
		},
		{
			name:     "unauthorized suggests authentication",
			err:      errors.New("401 Unauthorized"),
			contains: "authentication",
		},
		{
			name:     "unknown host suggests vault URL",
			err:      errors.New("dial tcp: lookup bad.vault.azure.net: no such host"),
			contains: "vault URL",
		},
		{
			name:     "throttling suggests quieter time",
			err:      errors.New("429 Too Many Requests"),
			contains: "throttled",
		},
		{
			name:     "tenant errors point at tenant ID",
			err:      errors.New("AADSTS90002: Tenant not found"),
			contains: "tenant ID",
		},
		{
			name:     "unknown errors get the generic suggestion",
			err:      errors.New("something odd happened"),
			contains: "Azure credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, getAzureErrorSuggestion(tt.err), tt.contains)
		})
	}
}

func TestIsAzureAuthError(t *testing.T) {
	assert.True(t, isAzureAuthError(errors.New("401 Unauthorized")))
	assert.True(t, isAzureAuthError(errors.New("caller is Forbidden")))
	assert.False(t, isAzureAuthError(errors.New("connection reset by peer")))
}
