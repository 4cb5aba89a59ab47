package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the ingestion server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`       // Listen address (default ":5000")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json
	DBPath    string `yaml:"db_path"`    // SQLite database path (":memory:" for testing)
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":5000",
		LogLevel:  "info",
		LogFormat: "text",
		DBPath:    "ingest.db",
	}
}

// Load reads a YAML config file on top of the defaults. An empty path
// returns the defaults unchanged; fields absent from the file keep their
// default values.
func Load(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
