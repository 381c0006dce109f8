package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cadence/config"
)

func TestLoadFromFile_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cadence.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
path = "custom.db"
`), 0o644))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom.db", cfg.Database.Path)
	assert.Equal(t, 1, cfg.Scheduler.TickIntervalSeconds)
	assert.Equal(t, 10, cfg.Scheduler.MaxConcurrentEvals)
	assert.Equal(t, "cadence", cfg.Metrics.MeterName)
	assert.False(t, cfg.Admin.Enabled)
	assert.Equal(t, "127.0.0.1:8089", cfg.Admin.Addr)
}

func TestLoadFromFile_AdminOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cadence.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[admin]
enabled = true
addr = "0.0.0.0:9000"
`), 0o644))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, "0.0.0.0:9000", cfg.Admin.Addr)
}

func TestLoadFromFile_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cadence.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[scheduler]
tick_interval_seconds = 5
max_concurrent_evals = 50

[metrics]
enabled = true
meter_name = "custom-meter"
`), 0o644))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Scheduler.TickIntervalSeconds)
	assert.Equal(t, 50, cfg.Scheduler.MaxConcurrentEvals)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "custom-meter", cfg.Metrics.MeterName)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := config.LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}
