package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PCLGATE_END_FILE", "PCLGATE_LOG_FILE", "PCLGATE_RESULT_FILE", "PCLGATE_THRESHOLDS",
		"PCLGATE_GEOMETRY", "PCLGATE_GEOMETRY_ADDR", "PCLGATE_DB", "PCLGATE_LOG_LEVEL", "PCLGATE_LISTEN",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Files.Result != "millepede.res" {
		t.Errorf("expected default result file, got %s", cfg.Files.Result)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected Level=info, got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.GeometryTimeout() != 5*time.Second || cfg.ShutdownTimeout() != 10*time.Second {
		t.Error("unexpected default timeouts")
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "pclgate.yaml")

	cfg := DefaultConfig()
	cfg.Files.Result = "/data/run42/millepede.res"
	cfg.Geometry.Remote = "geometry:9090"
	cfg.Thresholds = "/etc/pclgate/thresholds.yaml"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Files.Result != cfg.Files.Result {
		t.Errorf("expected %s, got %s", cfg.Files.Result, loaded.Files.Result)
	}
	if loaded.Geometry.Remote != "geometry:9090" || loaded.Thresholds != cfg.Thresholds {
		t.Errorf("unexpected loaded config %+v", loaded)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PCLGATE_DB", "/var/lib/pclgate/history.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected defaults, got %+v", cfg.Logging)
	}
	if cfg.History.Path != "/var/lib/pclgate/history.db" {
		t.Errorf("env override not applied: %s", cfg.History.Path)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("files: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PCLGATE_RESULT_FILE", "/tmp/res")
	t.Setenv("PCLGATE_GEOMETRY", "/etc/geometry.yaml")
	t.Setenv("PCLGATE_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Files.Result != "/tmp/res" {
		t.Errorf("expected result override, got %s", cfg.Files.Result)
	}
	if cfg.Geometry.Static != "/etc/geometry.yaml" {
		t.Errorf("expected geometry override, got %s", cfg.Geometry.Static)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level override, got %s", cfg.Logging.Level)
	}
	if cfg.Files.End != "millepede.end" {
		t.Errorf("unset variables must not override, got %s", cfg.Files.End)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"both geometries", func(c *Config) {
			c.Geometry.Static = "g.yaml"
			c.Geometry.Remote = "h:1"
		}},
		{"bad timeout", func(c *Config) { c.Geometry.Timeout = "soon" }},
		{"negative shutdown", func(c *Config) { c.Server.ShutdownTimeout = "-1s" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestConfig_ValidateRead(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateRead(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected missing geometry to fail, got %v", err)
	}

	cfg.Geometry.Static = "geometry.yaml"
	if err := cfg.ValidateRead(); err != nil {
		t.Errorf("expected valid read config, got %v", err)
	}

	cfg.Files.Log = ""
	if err := cfg.ValidateRead(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected missing log file to fail, got %v", err)
	}
}
