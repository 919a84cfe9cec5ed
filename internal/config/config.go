package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"sysmond/internal/logging"
)

// ErrInvalid marks configuration that was rejected by Validate. Bad values
// are never silently clamped; callers get the error synchronously.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Monitor MonitorConfig  `yaml:"monitor"`
	Daemon  DaemonConfig   `yaml:"daemon"`
	Logging logging.Config `yaml:"logging"`
}

// MonitorConfig configures the collection session.
type MonitorConfig struct {
	// Interval is the tick cadence of the scheduler.
	Interval time.Duration `yaml:"interval"`
	// SampleWindow is how long the delta sampler waits between its two
	// CPU counter snapshots. A window longer than Interval is legal; the
	// scheduler skips overlapping ticks instead of queueing them.
	SampleWindow  time.Duration `yaml:"sample_window"`
	HistorySize   int           `yaml:"history_size"`
	AlertsEnabled bool          `yaml:"alerts_enabled"`
	Thresholds    Thresholds    `yaml:"thresholds"`
}

type Thresholds struct {
	CPUWarning     float64 `yaml:"cpu_warning"`
	CPUCritical    float64 `yaml:"cpu_critical"`
	MemoryWarning  float64 `yaml:"memory_warning"`
	MemoryCritical float64 `yaml:"memory_critical"`
	DiskWarning    float64 `yaml:"disk_warning"`
	DiskCritical   float64 `yaml:"disk_critical"`
}

type DaemonConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	PidFile     string `yaml:"pid_file"`
	LogFile     string `yaml:"log_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Interval:      5 * time.Second,
			SampleWindow:  500 * time.Millisecond,
			HistorySize:   300,
			AlertsEnabled: true,
			Thresholds: Thresholds{
				CPUWarning:     70.0,
				CPUCritical:    90.0,
				MemoryWarning:  80.0,
				MemoryCritical: 95.0,
				DiskWarning:    80.0,
				DiskCritical:   95.0,
			},
		},
		Daemon: DaemonConfig{
			Name:        "sysmond",
			Description: "System metrics monitoring daemon",
			PidFile:     "/var/run/sysmond.pid",
			LogFile:     "/var/log/sysmond.log",
		},
		Logging: logging.DefaultConfig(),
	}
}

// LoadConfig reads the file at path, falling back to defaults when the file
// does not exist. Values present in the file override defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = getDefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes the configuration as YAML, creating parent directories.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		path = getDefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) Validate() error {
	if err := c.Monitor.Validate(); err != nil {
		return err
	}
	if c.Daemon.Name == "" {
		return fmt.Errorf("%w: daemon name must not be empty", ErrInvalid)
	}
	return nil
}

func (m *MonitorConfig) Validate() error {
	if m.Interval <= 0 {
		return fmt.Errorf("%w: monitor interval must be positive, got %s", ErrInvalid, m.Interval)
	}
	if m.SampleWindow < 0 {
		return fmt.Errorf("%w: sample_window must not be negative, got %s", ErrInvalid, m.SampleWindow)
	}
	if m.HistorySize <= 0 {
		return fmt.Errorf("%w: history_size must be positive, got %d", ErrInvalid, m.HistorySize)
	}

	t := m.Thresholds
	pairs := []struct {
		name             string
		warning, critical float64
	}{
		{"cpu", t.CPUWarning, t.CPUCritical},
		{"memory", t.MemoryWarning, t.MemoryCritical},
		{"disk", t.DiskWarning, t.DiskCritical},
	}
	for _, p := range pairs {
		if p.warning < 0 || p.warning > 100 || p.critical < 0 || p.critical > 100 {
			return fmt.Errorf("%w: %s thresholds must be within [0,100]", ErrInvalid, p.name)
		}
		if p.warning >= p.critical {
			return fmt.Errorf("%w: %s warning threshold must be less than critical", ErrInvalid, p.name)
		}
	}

	return nil
}

func getDefaultConfigPath() string {
	if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
		return filepath.Join(configDir, "sysmond", "config.yaml")
	}

	if homeDir := os.Getenv("HOME"); homeDir != "" {
		return filepath.Join(homeDir, ".config", "sysmond", "config.yaml")
	}

	return "./config.yaml"
}

// GetConfigPaths lists the locations searched for a configuration file, in
// order of preference.
func GetConfigPaths() []string {
	paths := []string{getDefaultConfigPath()}

	if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
		paths = append(paths, filepath.Join(configDir, "sysmond.yaml"))
	}

	paths = append(paths,
		"/etc/sysmond/config.yaml",
		"/usr/local/etc/sysmond/config.yaml",
		"./configs/config.yaml",
	)

	return paths
}

// FindConfig returns the first configuration file present in the standard
// locations.
func FindConfig() (string, error) {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return absPath, nil
		}
	}
	return "", fmt.Errorf("no config file found in standard locations")
}
