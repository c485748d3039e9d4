package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "warn", cfg.Workflow.GuardLevel)
	assert.Equal(t, 3, cfg.Workflow.MaxRetries)
	assert.True(t, cfg.Workflow.SyncToExternal)
	assert.True(t, cfg.Workflow.HistoryEnabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate_Rejections(t *testing.T) {
	cfg := Default()
	cfg.Workflow.GuardLevel = "strict"
	assert.ErrorContains(t, cfg.Validate(), "guard_level")

	cfg = Default()
	cfg.Workflow.MaxRetries = -1
	assert.ErrorContains(t, cfg.Validate(), "max_retries")

	cfg = Default()
	cfg.Logging.Format = "xml"
	assert.ErrorContains(t, cfg.Validate(), "logging.format")
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".flowd"), 0o700))
	content := "workflow:\n  guard_level: block\n  max_retries: 1\nlogging:\n  format: json\n"
	require.NoError(t, os.WriteFile(ConfigPath(root), []byte(content), 0o600))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "block", cfg.Workflow.GuardLevel)
	assert.Equal(t, 1, cfg.Workflow.MaxRetries)
	assert.Equal(t, "json", cfg.Logging.Format)
	// Untouched fields keep their defaults.
	assert.True(t, cfg.Workflow.HistoryEnabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".flowd"), 0o700))
	require.NoError(t, os.WriteFile(ConfigPath(root), []byte("workflow:\n  guard_level: block\n"), 0o600))

	t.Setenv("FLOWD_WORKFLOW_GUARD_LEVEL", "off")
	t.Setenv("FLOWD_LOGGING_LEVEL", "debug")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "off", cfg.Workflow.GuardLevel)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MalformedFileFails(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".flowd"), 0o700))
	require.NoError(t, os.WriteFile(ConfigPath(root), []byte(":\nnot yaml at all ["), 0o600))

	_, err := Load(root)
	require.Error(t, err)
}

func TestInstalled(t *testing.T) {
	root := t.TempDir()
	assert.False(t, Installed(root))

	require.NoError(t, os.MkdirAll(filepath.Join(root, ".flowd"), 0o700))
	assert.True(t, Installed(root))
}

func TestInstanceConfig(t *testing.T) {
	cfg := Default()
	cfg.Workflow.GuardLevel = "block"
	cfg.Workflow.MaxRetries = 5

	ic := cfg.InstanceConfig()
	assert.Equal(t, workflow.GuardBlock, ic.GuardLevel)
	assert.Equal(t, 5, ic.MaxRetries)
	assert.True(t, ic.SyncToExternal)
	assert.True(t, ic.HistoryEnabled)
}
