package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fractalxaos/radmond/internal/infrastructure/config"
	"github.com/fractalxaos/radmond/internal/journal"
)

const testRecord = "[{UTC=17:45:24 1/1/2020,CPS=0,CPM=20,uSv/hr=0.12,Mode=SLOW}]"

// writeConfig writes a temporary YAML config and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

// baseConfig renders a minimal valid configuration. The rrdtool binary
// is replaced with /usr/bin/true so no external tool is needed.
func baseConfig(deviceURL, dir string) string {
	return fmt.Sprintf(`
monitor:
  url: "%s"
  poll_interval: 1
  request_timeout: 1
  max_failed_polls: 2
  timestamp_source: device

output:
  directory: "%s/out"

rrd:
  binary: "true"
  path: "%s/radmon.rrd"
  update_interval: 30
  command_timeout: 5

charts:
  update_interval: 300

logging:
  level: error
  format: text
  output: stdout
`, deviceURL, dir, dir)
}

// TestGetConfigPath_FlagWins verifies the -config flag beats the
// environment variable.
func TestGetConfigPath_FlagWins(t *testing.T) {
	originalEnv := os.Getenv("RADMOND_CONFIG")
	defer os.Setenv("RADMOND_CONFIG", originalEnv)
	os.Setenv("RADMOND_CONFIG", "/env/config.yaml")

	path := getConfigPath(options{configPath: "/flag/config.yaml"})
	if path != "/flag/config.yaml" {
		t.Errorf("getConfigPath() = %q, want %q", path, "/flag/config.yaml")
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("RADMOND_CONFIG")
	defer os.Setenv("RADMOND_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("RADMOND_CONFIG", expected)

	path := getConfigPath(options{})
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestGetConfigPath_NoDefaultFile verifies the default path is only
// used when the file exists, falling back to running without one.
func TestGetConfigPath_NoDefaultFile(t *testing.T) {
	originalEnv := os.Getenv("RADMOND_CONFIG")
	defer os.Setenv("RADMOND_CONFIG", originalEnv)
	os.Unsetenv("RADMOND_CONFIG")

	// The test working directory carries no configs/config.yaml.
	if path := getConfigPath(options{}); path != "" {
		t.Errorf("getConfigPath() = %q, want empty", path)
	}
}

// TestLoadConfig_Overrides verifies the poll interval and logging
// flags adjust the loaded configuration.
func TestLoadConfig_Overrides(t *testing.T) {
	configPath := writeConfig(t, baseConfig("http://127.0.0.1:9", t.TempDir()))

	cfg, err := loadConfig(configPath, options{pollSecs: -10, debug: true})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Monitor.PollInterval != 10 {
		t.Errorf("PollInterval = %d, want 10 (magnitude of -10)", cfg.Monitor.PollInterval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

// TestLoadConfig_DeviceURLOverride verifies -u supplies the device URL
// when the configuration leaves it empty.
func TestLoadConfig_DeviceURLOverride(t *testing.T) {
	originalEnv := os.Getenv("RADMOND_MONITOR_URL")
	defer os.Setenv("RADMOND_MONITOR_URL", originalEnv)

	cfg, err := loadConfig("", options{deviceURL: "http://10.0.0.8"})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Monitor.URL != "http://10.0.0.8" {
		t.Errorf("Monitor.URL = %q, want %q", cfg.Monitor.URL, "http://10.0.0.8")
	}
}

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, options{configPath: "/nonexistent/path/config.yaml"})
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabase verifies run refuses to start without the
// round-robin database and points at -createdb.
func TestRun_MissingDatabase(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, baseConfig("http://127.0.0.1:9", dir))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, options{configPath: configPath})
	if err == nil {
		t.Fatal("run() should fail when the database file is missing")
	}
	if !strings.Contains(err.Error(), "-createdb") {
		t.Errorf("error %q should mention -createdb", err)
	}
}

// TestRun_CreateDatabase verifies -createdb bootstraps and exits.
func TestRun_CreateDatabase(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, baseConfig("http://127.0.0.1:9", dir))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, options{configPath: configPath, createDB: true}); err != nil {
		t.Fatalf("run() with -createdb error = %v", err)
	}
}

// TestRun_StartupAndShutdown exercises a full agent lifecycle against a
// fake device: startup, at least one poll, and clean shutdown with the
// artifacts removed and the lifecycle journalled.
func TestRun_StartupAndShutdown(t *testing.T) {
	device := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, testRecord)
	}))
	defer device.Close()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "radmon.rrd")
	if err := os.WriteFile(dbPath, []byte("RRD"), 0600); err != nil {
		t.Fatalf("creating database file: %v", err)
	}
	journalPath := filepath.Join(dir, "radmond.db")

	configPath := writeConfig(t, baseConfig(device.URL, dir)+fmt.Sprintf(`
journal:
  enabled: true
  path: "%s"
  busy_timeout: 5
`, journalPath))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx, options{configPath: configPath}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	// The shutdown contract removes both artifacts.
	for _, name := range []string{"radmonInputData.dat", "radmonOutputData.js"} {
		if _, err := os.Stat(filepath.Join(dir, "out", name)); !os.IsNotExist(err) {
			t.Errorf("artifact %s still present after shutdown", name)
		}
	}

	// The journal recorded the lifecycle.
	j, err := journal.Open(config.JournalConfig{Enabled: true, Path: journalPath, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("reopening journal: %v", err)
	}
	defer j.Close()

	events, err := j.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("reading journal: %v", err)
	}
	seen := make(map[string]bool, len(events))
	for _, evt := range events {
		seen[evt.Event] = true
	}
	if !seen[journal.EventAgentStart] || !seen[journal.EventAgentStop] {
		t.Errorf("journal events = %v, want agent_start and agent_stop", events)
	}
}
