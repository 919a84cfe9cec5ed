package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")

	logger, err := NewLogger(Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: path,
	})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("hello", "key", "value")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var record map[string]interface{}
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("log record is not valid JSON: %v", err)
	}
	if record["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", record["msg"])
	}
	if record["key"] != "value" {
		t.Errorf("key = %v, want value", record["key"])
	}

	// Timestamps are rendered as RFC3339.
	ts, ok := record["time"].(string)
	if !ok {
		t.Fatal("record has no time field")
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewLogger(Config{
		Level:  LevelWarn,
		Format: FormatText,
		Output: path,
	})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	output := string(data)

	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Error("records below warn level should be suppressed")
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Error("warn and error records should be emitted")
	}
}

func TestWithComponentTagsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewLogger(Config{Level: LevelInfo, Format: FormatJSON, Output: path})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.WithComponent("sampler").Info("tick")
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var record map[string]interface{}
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("invalid JSON record: %v", err)
	}
	if record["component"] != "sampler" {
		t.Errorf("component = %v, want sampler", record["component"])
	}
}

func TestWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewLogger(Config{Level: LevelInfo, Format: FormatJSON, Output: path})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.WithFields(map[string]interface{}{"host": "node-1", "pid": 42}).Info("up")
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var record map[string]interface{}
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("invalid JSON record: %v", err)
	}
	if record["host"] != "node-1" {
		t.Errorf("host = %v, want node-1", record["host"])
	}
}

func TestMetricsLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewLogger(Config{Level: LevelInfo, Format: FormatJSON, Output: path})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	metrics := NewMetricsLogger(logger)
	metrics.LogCounter("ticks_total", 7, map[string]string{"state": "ok"})
	metrics.LogGauge("cpu_percent", 42.5, nil)
	metrics.LogTiming("sample_duration", 120*time.Millisecond, nil)
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("record count = %d, want 3", len(lines))
	}

	var counter map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &counter); err != nil {
		t.Fatalf("invalid JSON record: %v", err)
	}
	if counter["metric_type"] != "counter" || counter["metric_name"] != "ticks_total" {
		t.Errorf("counter record = %v", counter)
	}
	if counter["value"] != float64(7) {
		t.Errorf("counter value = %v, want 7", counter["value"])
	}
	if counter["label_state"] != "ok" {
		t.Errorf("counter label = %v, want ok", counter["label_state"])
	}
	if counter["component"] != "metrics" {
		t.Errorf("component = %v, want metrics", counter["component"])
	}

	var timing map[string]interface{}
	if err := json.Unmarshal([]byte(lines[2]), &timing); err != nil {
		t.Fatalf("invalid JSON record: %v", err)
	}
	if timing["duration_ms"] != float64(120) {
		t.Errorf("duration_ms = %v, want 120", timing["duration_ms"])
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo {
		t.Errorf("Level = %s, want info", cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("Format = %s, want text", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("Output = %s, want stdout", cfg.Output)
	}
}
