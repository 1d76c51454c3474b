// Package config loads the engine's process configuration from a YAML
// file, trimmed from a much larger struct-of-structs-with-yaml-tags layout
// down to the three sections this engine actually has: the listen address,
// where the event log goes, and the log level.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the engine's top-level configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Sink    SinkConfig    `yaml:"sink"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the command/event TCP listener.
type ServerConfig struct {
	Address string `yaml:"address"`
	// MetricsAddress serves /metrics and /healthz. Empty disables it.
	MetricsAddress string `yaml:"metrics_address"`
}

// SinkConfig controls where the output event log is written.
type SinkConfig struct {
	// Destination is "stdout" or a file path. Defaults to stdout.
	Destination string `yaml:"destination"`
}

// LoggingConfig controls operational (not event-log) logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with every field set to its documented default,
// suitable for running the engine with no config file at all.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Address: "0.0.0.0:7000", MetricsAddress: ":9090"},
		Sink:    SinkConfig{Destination: "stdout"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads and parses a YAML config file at path. Fields absent from the
// file keep Default's values, since Load starts from a Default() and
// unmarshals on top of it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
