//nolint:testpackage // Tests require internal access for thorough testing
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	want := Defaults()
	if *cfg != want {
		t.Errorf("cfg = %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: sqlite
  path: /tmp/stint.db
  key: work
  project_scoped: true
ticker:
  interval: 250ms
logging:
  level: debug
  format: json
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Storage.Backend != BackendSQLite || cfg.Storage.Path != "/tmp/stint.db" || cfg.Storage.Key != "work" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if !cfg.Storage.ProjectScoped {
		t.Error("ProjectScoped should be true")
	}
	if cfg.Ticker.Interval != 250*time.Millisecond {
		t.Errorf("Interval = %v, want 250ms", cfg.Ticker.Interval)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "storage:\n  key: fromyaml\n")
	t.Setenv("STINT_STORAGE_KEY", "fromenv")
	t.Setenv("STINT_TICK_INTERVAL", "500ms")
	t.Setenv("STINT_PROJECT_SCOPED", "true")
	t.Setenv("STINT_LOG_LEVEL", "error")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Storage.Key != "fromenv" {
		t.Errorf("Key = %q, want fromenv", cfg.Storage.Key)
	}
	if cfg.Ticker.Interval != 500*time.Millisecond {
		t.Errorf("Interval = %v, want 500ms", cfg.Ticker.Interval)
	}
	if !cfg.Storage.ProjectScoped {
		t.Error("ProjectScoped should come from env")
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Level = %q, want error", cfg.Logging.Level)
	}
}

func TestInvalidEnvValuesAreIgnored(t *testing.T) {
	t.Setenv("STINT_TICK_INTERVAL", "soon")
	t.Setenv("STINT_PROJECT_SCOPED", "maybe")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Ticker.Interval != time.Second || cfg.Storage.ProjectScoped {
		t.Errorf("invalid env values should leave defaults, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown backend", "storage:\n  backend: redis\n", "storage.backend"},
		{"bad key", "storage:\n  key: ../escape\n", "storage.key"},
		{"zero interval", "ticker:\n  interval: 0s\n", "ticker.interval"},
		{"interval slower than a second", "ticker:\n  interval: 5s\n", "ticker.interval"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"malformed yaml", "storage: [\n", "config yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFrom error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath failed: %v", err)
	}
	if path != filepath.Join("/xdg", "stint", "config.yaml") {
		t.Errorf("DefaultPath = %q", path)
	}
}
