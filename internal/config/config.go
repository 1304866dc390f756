package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/pclgate/internal/reader"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// #region types
// Config is the pclgate configuration file.
type Config struct {
	// Pede output of the run to evaluate
	Files reader.Files `yaml:"files"`

	// Threshold table path; empty uses the built-in defaults
	Thresholds string `yaml:"thresholds"`

	Geometry GeometryConfig `yaml:"geometry"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
}

// GeometryConfig selects the label and structure source. Exactly one of
// Static and Remote is used when reading a run.
type GeometryConfig struct {
	Static  string `yaml:"static"`  // YAML element table
	Remote  string `yaml:"remote"`  // host:port of a geometry gRPC service
	Timeout string `yaml:"timeout"` // per remote call
}

// HistoryConfig locates the SQLite run history. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

type ServerConfig struct {
	Listen          string `yaml:"listen"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// #endregion types

// #region load
// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Files: reader.Files{
			End:    "millepede.end",
			Log:    "millepede.log",
			Result: "millepede.res",
		},
		Geometry: GeometryConfig{Timeout: "5s"},
		History:  HistoryConfig{Path: "pclgate.db"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Server:   ServerConfig{Listen: ":8080", ShutdownTimeout: "10s"},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"PCLGATE_END_FILE", &c.Files.End},
		{"PCLGATE_LOG_FILE", &c.Files.Log},
		{"PCLGATE_RESULT_FILE", &c.Files.Result},
		{"PCLGATE_THRESHOLDS", &c.Thresholds},
		{"PCLGATE_GEOMETRY", &c.Geometry.Static},
		{"PCLGATE_GEOMETRY_ADDR", &c.Geometry.Remote},
		{"PCLGATE_DB", &c.History.Path},
		{"PCLGATE_LOG_LEVEL", &c.Logging.Level},
		{"PCLGATE_LISTEN", &c.Server.Listen},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// #endregion load

// #region accessors
// GeometryTimeout returns the remote call timeout as a duration.
func (c *Config) GeometryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Geometry.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// ShutdownTimeout returns the server drain timeout as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// #endregion accessors

// #region validate
// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalid, err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("%w: logging.format must be json or console, got %q", ErrInvalid, c.Logging.Format)
	}
	if c.Geometry.Static != "" && c.Geometry.Remote != "" {
		return fmt.Errorf("%w: geometry.static and geometry.remote are exclusive", ErrInvalid)
	}
	for key, v := range map[string]string{
		"geometry.timeout":        c.Geometry.Timeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration, got %q", ErrInvalid, key, v)
		}
	}
	return nil
}

// ValidateRead additionally checks what evaluating a run needs.
func (c *Config) ValidateRead() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Files.End == "" || c.Files.Log == "" || c.Files.Result == "" {
		return fmt.Errorf("%w: files.end, files.log and files.result are required", ErrInvalid)
	}
	if c.Geometry.Static == "" && c.Geometry.Remote == "" {
		return fmt.Errorf("%w: one of geometry.static or geometry.remote is required", ErrInvalid)
	}
	return nil
}

// #endregion validate
