package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/kvreport/internal/config"
	"github.com/systmms/kvreport/internal/logging"
)

func TestSourcesCommand_ListsBuiltinTypes(t *testing.T) {
	// No config on disk; only the built-in table should appear.
	cfg := &config.Config{
		Path:   filepath.Join(t.TempDir(), "kvreport.yaml"),
		Logger: logging.New(false, true),
	}

	cmd := NewSourcesCommand(cfg)
	output, err := captureCommandOutput(t, cmd, nil)
	require.NoError(t, err)

	assert.Contains(t, output, "Built-in Source Types:")
	for _, sourceType := range []string{
		"mock",
		"azure.keyvault",
		"aws.secretsmanager",
		"aws.parameterstore",
		"gcp.secretmanager",
		"postgres.roles",
		"mysql.users",
	} {
		assert.Contains(t, output, sourceType)
	}

	assert.NotContains(t, output, "Configured Sources:")
}

func TestSourcesCommand_ShowsConfiguredSources(t *testing.T) {
	cfg := writeCommandConfig(t, previewConfig)

	cmd := NewSourcesCommand(cfg)
	output, err := captureCommandOutput(t, cmd, nil)
	require.NoError(t, err)

	assert.Contains(t, output, "Configured Sources:")
	assert.Contains(t, output, "demo")
	assert.Contains(t, output, "selected for report")
}

func TestSourcesCommand_MarksUnsupportedTypes(t *testing.T) {
	cfg := writeCommandConfig(t, doctorUnknownTypeConfig)

	cmd := NewSourcesCommand(cfg)
	output, err := captureCommandOutput(t, cmd, nil)
	require.NoError(t, err)

	assert.Contains(t, output, "mystery")
	assert.Contains(t, output, "unsupported")
}

func TestGetSourceDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sourceType   string
		wantContains string
	}{
		{"mock", "Fixed inventory"},
		{"azure.keyvault", "Azure Key Vault"},
		{"aws.secretsmanager", "AWS Secrets Manager"},
		{"aws.parameterstore", "Parameter Store"},
		{"gcp.secretmanager", "Google Cloud Secret Manager"},
		{"postgres.roles", "PostgreSQL"},
		{"mysql.users", "MySQL"},
		{"punchcard.archive", "No description available"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.sourceType, func(t *testing.T) {
			t.Parallel()
			desc := getSourceDescription(tt.sourceType)
			assert.Contains(t, desc, tt.wantContains)
		})
	}
}
