package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/kvreport/internal/config"
	"github.com/systmms/kvreport/internal/logging"
)

const runPasswordEnvConfig = `version: 0

sources:
  demo:
    type: mock
    secrets:
      - name: api-token
        expires_in: 240h

report:
  source: demo
  recipient: security-team@example.com
  admin: vault-admin@example.com

mail:
  from: kvreport@example.com
  smtp:
    host: smtp.example.com
    port: 587
    username: reports@example.com
    password_env: KVREPORT_RUN_TEST_UNSET
`

func TestRunCommand_MissingConfig(t *testing.T) {
	cfg := &config.Config{
		Path:   filepath.Join(t.TempDir(), "kvreport.yaml"),
		Logger: logging.New(false, true),
	}

	cmd := NewRunCommand(cfg)
	_, err := captureCommandOutput(t, cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestRunCommand_InvalidRange(t *testing.T) {
	cfg := writeCommandConfig(t, doctorHealthyConfig)

	cmd := NewRunCommand(cfg)
	_, err := captureCommandOutput(t, cmd, []string{"--range", "weekly"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid report range")
}

func TestRunCommand_UnknownSourceType(t *testing.T) {
	cfg := writeCommandConfig(t, doctorUnknownTypeConfig)

	cmd := NewRunCommand(cfg)
	_, err := captureCommandOutput(t, cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source type")
}

func TestRunCommand_MissingPasswordEnv(t *testing.T) {
	cfg := writeCommandConfig(t, runPasswordEnvConfig)

	cmd := NewRunCommand(cfg)
	_, err := captureCommandOutput(t, cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KVREPORT_RUN_TEST_UNSET")
	assert.Contains(t, err.Error(), "environment variable is not set")
}

func TestRunCommand_FlagDefinitions(t *testing.T) {
	cmd := NewRunCommand(&config.Config{})

	rangeFlag := cmd.Flags().Lookup("range")
	require.NotNil(t, rangeFlag)
	assert.Equal(t, "", rangeFlag.DefValue)
}

func TestReportModeFlagPrecedence(t *testing.T) {
	cfg := writeCommandConfig(t, previewConfig)
	require.NoError(t, cfg.Load())

	// The config is silent on range, so the default is all upcoming.
	mode, err := reportMode(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "all", mode.String())

	// A flag value wins over the config.
	mode, err = reportMode(cfg, "30")
	require.NoError(t, err)
	assert.Equal(t, "30d", mode.String())

	_, err = reportMode(cfg, "biweekly")
	require.Error(t, err)
}
