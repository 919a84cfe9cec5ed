package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestMonitorConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*MonitorConfig)
		wantErr bool
	}{
		{"defaults", func(m *MonitorConfig) {}, false},
		{"zero interval", func(m *MonitorConfig) { m.Interval = 0 }, true},
		{"negative interval", func(m *MonitorConfig) { m.Interval = -time.Second }, true},
		{"negative sample window", func(m *MonitorConfig) { m.SampleWindow = -time.Millisecond }, true},
		{"zero sample window ok", func(m *MonitorConfig) { m.SampleWindow = 0 }, false},
		{"window longer than interval ok", func(m *MonitorConfig) {
			m.Interval = time.Second
			m.SampleWindow = 2 * time.Second
		}, false},
		{"zero history", func(m *MonitorConfig) { m.HistorySize = 0 }, true},
		{"threshold above 100", func(m *MonitorConfig) { m.Thresholds.CPUCritical = 150 }, true},
		{"negative threshold", func(m *MonitorConfig) { m.Thresholds.MemoryWarning = -1 }, true},
		{"warning at critical", func(m *MonitorConfig) {
			m.Thresholds.DiskWarning = 95
			m.Thresholds.DiskCritical = 95
		}, true},
		{"warning above critical", func(m *MonitorConfig) {
			m.Thresholds.CPUWarning = 95
			m.Thresholds.CPUCritical = 90
		}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig().Monitor
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("Validate() error = %v, want ErrInvalid", err)
				}
			} else if err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestConfigValidateRequiresDaemonName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Daemon.Name = ""
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("Validate() error = %v, want ErrInvalid", err)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Monitor.Interval != 5*time.Second {
		t.Errorf("Monitor.Interval = %s, want default 5s", cfg.Monitor.Interval)
	}
	if !cfg.Monitor.AlertsEnabled {
		t.Error("Monitor.AlertsEnabled should default to true")
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
monitor:
  interval: 2s
  history_size: 50
  alerts_enabled: true
  thresholds:
    cpu_warning: 60
    cpu_critical: 85
    memory_warning: 80
    memory_critical: 95
    disk_warning: 80
    disk_critical: 95
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Monitor.Interval != 2*time.Second {
		t.Errorf("Monitor.Interval = %s, want 2s", cfg.Monitor.Interval)
	}
	if cfg.Monitor.HistorySize != 50 {
		t.Errorf("Monitor.HistorySize = %d, want 50", cfg.Monitor.HistorySize)
	}
	if cfg.Monitor.Thresholds.CPUWarning != 60 {
		t.Errorf("Thresholds.CPUWarning = %v, want 60", cfg.Monitor.Thresholds.CPUWarning)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Monitor.SampleWindow != 500*time.Millisecond {
		t.Errorf("Monitor.SampleWindow = %s, want default 500ms", cfg.Monitor.SampleWindow)
	}
	if cfg.Daemon.Name != "sysmond" {
		t.Errorf("Daemon.Name = %s, want default sysmond", cfg.Daemon.Name)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
monitor:
  interval: -1s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("LoadConfig() error = %v, want ErrInvalid", err)
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("monitor: [not a mapping"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() on malformed yaml should fail")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	original := DefaultConfig()
	original.Monitor.Interval = 7 * time.Second
	original.Monitor.Thresholds.CPUWarning = 65
	original.Daemon.Name = "sysmond-test"

	if err := original.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if loaded.Monitor.Interval != original.Monitor.Interval {
		t.Errorf("Interval = %s, want %s", loaded.Monitor.Interval, original.Monitor.Interval)
	}
	if loaded.Monitor.Thresholds.CPUWarning != 65 {
		t.Errorf("CPUWarning = %v, want 65", loaded.Monitor.Thresholds.CPUWarning)
	}
	if loaded.Daemon.Name != "sysmond-test" {
		t.Errorf("Daemon.Name = %s, want sysmond-test", loaded.Daemon.Name)
	}
}

func TestGetConfigPathsRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	paths := GetConfigPaths()
	if len(paths) == 0 {
		t.Fatal("GetConfigPaths() returned nothing")
	}
	if paths[0] != filepath.Join("/tmp/xdg-test", "sysmond", "config.yaml") {
		t.Errorf("paths[0] = %s, want XDG location first", paths[0])
	}
}
