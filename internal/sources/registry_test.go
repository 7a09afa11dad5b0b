package sources_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/internal/sources"
	"github.com/systmms/kvreport/pkg/inventory"
)

// TestRegistryCreation validates registry initialization
func TestRegistryCreation(t *testing.T) {
	t.Parallel()

	registry := sources.NewRegistry()
	assert.NotNil(t, registry)

	supportedTypes := registry.SupportedTypes()
	assert.NotEmpty(t, supportedTypes)
	assert.IsIncreasing(t, supportedTypes, "Types should be listed sorted")
}

// TestRegistryIsSupported validates source type checking
func TestRegistryIsSupported(t *testing.T) {
	t.Parallel()

	registry := sources.NewRegistry()

	tests := []struct {
		name          string
		sourceType    string
		wantSupported bool
	}{
		{"mock", "mock", true},
		{"azure_keyvault", "azure.keyvault", true},
		{"aws_secretsmanager", "aws.secretsmanager", true},
		{"aws_parameterstore", "aws.parameterstore", true},
		{"gcp_secretmanager", "gcp.secretmanager", true},
		{"postgres_roles", "postgres.roles", true},
		{"mysql_users", "mysql.users", true},
		{"unknown", "unknown-source", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			supported := registry.IsSupported(tt.sourceType)
			assert.Equal(t, tt.wantSupported, supported,
				"Source type '%s' support check failed", tt.sourceType)
		})
	}
}

// TestRegistryCreate validates source creation
func TestRegistryCreate(t *testing.T) {
	t.Parallel()

	registry := sources.NewRegistry()

	t.Run("mock_source", func(t *testing.T) {
		t.Parallel()

		source, err := registry.Create("my-mock", "mock", map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, "my-mock", source.Name())
		assert.Equal(t, "mock", source.Type())
	})

	t.Run("unknown_type_lists_available", func(t *testing.T) {
		t.Parallel()

		_, err := registry.Create("bad", "unknown-type", map[string]interface{}{})
		require.Error(t, err)

		var cfgErr kverrors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "source.type", cfgErr.Field)
		assert.Contains(t, cfgErr.Suggestion, "azure.keyvault")
		assert.Contains(t, cfgErr.Suggestion, "mock")
	})

	t.Run("factory_errors_propagate", func(t *testing.T) {
		t.Parallel()

		// Azure factory rejects missing vault_url before touching Azure
		_, err := registry.Create("bad-vault", "azure.keyvault", map[string]interface{}{})
		require.Error(t, err)

		var cfgErr kverrors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "vault_url", cfgErr.Field)
	})
}

// TestRegistryCustomFactory validates registering an out-of-tree source
func TestRegistryCustomFactory(t *testing.T) {
	t.Parallel()

	registry := sources.NewRegistry()
	registry.RegisterFactory("inhouse.vault", func(name string, settings map[string]interface{}) (inventory.Source, error) {
		mock := sources.NewMockSource(name)
		return mock, nil
	})

	require.True(t, registry.IsSupported("inhouse.vault"))

	source, err := registry.Create("corp", "inhouse.vault", nil)
	require.NoError(t, err)
	assert.Equal(t, "corp", source.Name())

	keys, err := source.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
