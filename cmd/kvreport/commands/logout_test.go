package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/kvreport/internal/config"
	"github.com/systmms/kvreport/internal/logging"
)

func TestNewLogoutCommand(t *testing.T) {
	t.Parallel()

	cmd := NewLogoutCommand(&config.Config{})

	assert.Equal(t, "logout", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}

func TestLogoutCommand_NoUsername(t *testing.T) {
	cfg := writeCommandConfig(t, doctorHealthyConfig)

	cmd := NewLogoutCommand(cfg)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SMTP username configured")
}

func TestLogoutCommand_MissingConfig(t *testing.T) {
	cfg := &config.Config{
		Path:   filepath.Join(t.TempDir(), "kvreport.yaml"),
		Logger: logging.New(false, true),
	}

	cmd := NewLogoutCommand(cfg)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}
