package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-trading/matchengine/internal/config"
	"github.com/kestrel-trading/matchengine/internal/metrics"
	"github.com/kestrel-trading/matchengine/internal/sink"
)

func TestNewLogger_ValidLevel(t *testing.T) {
	logger, err := NewLogger(&config.Config{Logging: config.LoggingConfig{Level: "debug"}})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(&config.Config{Logging: config.LoggingConfig{Level: "not-a-level"}})
	assert.Error(t, err)
}

func TestNewSink_DefaultsToStdout(t *testing.T) {
	w, err := NewSink(&config.Config{Sink: config.SinkConfig{Destination: ""}})
	require.NoError(t, err)
	assert.NotNil(t, w)
}

func TestNewSink_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	w, err := NewSink(&config.Config{Sink: config.SinkConfig{Destination: path}})
	require.NoError(t, err)

	w.Emit(sink.OrderAdded(1, "AAPL", 100, 10, false, 0))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "AAPL")
}

func TestNewMetricsSink_WrapsAndForwards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	w, err := NewSink(&config.Config{Sink: config.SinkConfig{Destination: path}})
	require.NoError(t, err)

	collector := metrics.NewCollector()
	wrapped := NewMetricsSink(w, collector)

	assert.NotNil(t, wrapped)
	wrapped.Emit(sink.OrderAdded(1, "AAPL", 100, 10, false, 0))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "AAPL")
}
