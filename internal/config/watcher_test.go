package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, path string, interval time.Duration) {
	t.Helper()
	content := "monitor:\n  interval: " + interval.String() + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeTestConfig(t, path, 5*time.Second)

	changes := make(chan *Config, 4)
	watcher, err := WatchConfig(path, nil, func(cfg *Config) {
		changes <- cfg
	})
	if err != nil {
		t.Fatalf("WatchConfig() error = %v", err)
	}
	defer watcher.Close()

	writeTestConfig(t, path, 2*time.Second)

	select {
	case cfg := <-changes:
		if cfg.Monitor.Interval != 2*time.Second {
			t.Errorf("reloaded interval = %s, want 2s", cfg.Monitor.Interval)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatcherDropsInvalidUpdate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeTestConfig(t, path, 5*time.Second)

	changes := make(chan *Config, 4)
	watcher, err := WatchConfig(path, nil, func(cfg *Config) {
		changes <- cfg
	})
	if err != nil {
		t.Fatalf("WatchConfig() error = %v", err)
	}
	defer watcher.Close()

	// A rejected update keeps the running configuration; the callback must
	// not fire. Follow with a valid write to bound the wait.
	writeTestConfig(t, path, -time.Second)
	time.Sleep(2 * debounceDelay)
	writeTestConfig(t, path, 3*time.Second)

	select {
	case cfg := <-changes:
		if cfg.Monitor.Interval != 3*time.Second {
			t.Errorf("callback saw interval %s, invalid update leaked through", cfg.Monitor.Interval)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for valid config reload")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeTestConfig(t, path, 5*time.Second)

	changes := make(chan *Config, 4)
	watcher, err := WatchConfig(path, nil, func(cfg *Config) {
		changes <- cfg
	})
	if err != nil {
		t.Fatalf("WatchConfig() error = %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case <-changes:
		t.Error("callback fired for an unrelated file in the watched directory")
	case <-time.After(3 * debounceDelay):
	}
}

func TestWatcherCloseStopsCallbacks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeTestConfig(t, path, 5*time.Second)

	changes := make(chan *Config, 4)
	watcher, err := WatchConfig(path, nil, func(cfg *Config) {
		changes <- cfg
	})
	if err != nil {
		t.Fatalf("WatchConfig() error = %v", err)
	}

	if err := watcher.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	writeTestConfig(t, path, 1*time.Second)

	select {
	case <-changes:
		t.Error("callback fired after Close()")
	case <-time.After(3 * debounceDelay):
	}
}
