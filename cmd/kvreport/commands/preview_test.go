package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/kvreport/internal/config"
	"github.com/systmms/kvreport/internal/logging"
)

const previewConfig = `version: 0

sources:
  demo:
    type: mock
    keys:
      - name: rotation-key
        expires: "2020-01-01T00:00:00Z"
    secrets:
      - name: fresh-token
        expires_in: 240h
      - name: service-account
    certificates:
      - name: gateway-tls
        expires_in: 1200h

report:
  source: demo
  recipient: security-team@example.com
  admin: vault-admin@example.com

mail:
  from: kvreport@example.com
  smtp:
    host: smtp.example.com
    port: 587
`

func TestPreviewCommand_WritesHTMLToStdout(t *testing.T) {
	cfg := writeCommandConfig(t, previewConfig)

	cmd := NewPreviewCommand(cfg)
	output, err := captureCommandOutput(t, cmd, nil)
	require.NoError(t, err)

	assert.Contains(t, output, "<!DOCTYPE html")
	assert.Contains(t, output, "Credential expiry report: demo")
	assert.Contains(t, output, "rotation-key")
	assert.Contains(t, output, "fresh-token")
	assert.Contains(t, output, "gateway-tls")
	assert.Contains(t, output, "no expiration date")
}

func TestPreviewCommand_WritesFile(t *testing.T) {
	cfg := writeCommandConfig(t, previewConfig)
	outPath := filepath.Join(t.TempDir(), "report.html")

	cmd := NewPreviewCommand(cfg)
	_, err := captureCommandOutput(t, cmd, []string{"--output", outPath})
	require.NoError(t, err)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)

	assert.Contains(t, string(content), "<!DOCTYPE html")
	assert.Contains(t, string(content), "rotation-key")
	assert.Contains(t, string(content), "gateway-tls")
}

func TestPreviewCommand_RangeFlagFilters(t *testing.T) {
	cfg := writeCommandConfig(t, previewConfig)

	cmd := NewPreviewCommand(cfg)
	output, err := captureCommandOutput(t, cmd, []string{"--range", "expired"})
	require.NoError(t, err)

	assert.Contains(t, output, "Range: expired")
	assert.Contains(t, output, "rotation-key")
	assert.NotContains(t, output, "fresh-token")
	assert.NotContains(t, output, "gateway-tls")
}

func TestPreviewCommand_InvalidRange(t *testing.T) {
	cfg := writeCommandConfig(t, previewConfig)

	cmd := NewPreviewCommand(cfg)
	_, err := captureCommandOutput(t, cmd, []string{"--range", "fortnight"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid report range")
}

func TestPreviewCommand_MissingConfig(t *testing.T) {
	cfg := &config.Config{
		Path:   filepath.Join(t.TempDir(), "kvreport.yaml"),
		Logger: logging.New(false, true),
	}

	cmd := NewPreviewCommand(cfg)
	_, err := captureCommandOutput(t, cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestPreviewCommand_FlagDefinitions(t *testing.T) {
	cmd := NewPreviewCommand(&config.Config{})

	rangeFlag := cmd.Flags().Lookup("range")
	require.NotNil(t, rangeFlag)
	assert.Equal(t, "", rangeFlag.DefValue)

	outputFlag := cmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}
