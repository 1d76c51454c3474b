package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0:7000", cfg.Server.Address)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddress)
	assert.Equal(t, "stdout", cfg.Sink.Destination)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_OverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "server:\n  address: \"127.0.0.1:8000\"\nlogging:\n  level: \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched sections keep their defaults
	assert.Equal(t, ":9090", cfg.Server.MetricsAddress)
	assert.Equal(t, "stdout", cfg.Sink.Destination)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
