package config

import (
	"os"
	"path/filepath"
	"testing"
)

// validConfig returns a default configuration with the required device URL set.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Monitor.URL = "http://radmon.local"
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
monitor:
  url: "http://192.168.1.8"
  poll_interval: 10
output:
  directory: "/tmp/radmon/dynamic"
rrd:
  path: "/tmp/radmon/radmonData.rrd"
charts:
  width: 800
  height: 200
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Monitor.URL != "http://192.168.1.8" {
		t.Errorf("Monitor.URL = %q, want %q", cfg.Monitor.URL, "http://192.168.1.8")
	}

	if cfg.Monitor.PollInterval != 10 {
		t.Errorf("Monitor.PollInterval = %d, want 10", cfg.Monitor.PollInterval)
	}

	// Unset values keep their defaults.
	if cfg.Monitor.RequestTimeout != 3 {
		t.Errorf("Monitor.RequestTimeout = %d, want default 3", cfg.Monitor.RequestTimeout)
	}

	if cfg.RRD.Path != "/tmp/radmon/radmonData.rrd" {
		t.Errorf("RRD.Path = %q, want %q", cfg.RRD.Path, "/tmp/radmon/radmonData.rrd")
	}

	if cfg.Charts.Width != 800 {
		t.Errorf("Charts.Width = %d, want 800", cfg.Charts.Width)
	}

	// Charts directory falls back to the output directory.
	if cfg.Charts.Directory != "/tmp/radmon/dynamic" {
		t.Errorf("Charts.Directory = %q, want output directory", cfg.Charts.Directory)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("RADMOND_MONITOR_URL", "http://radmon.local")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}

	if cfg.Monitor.URL != "http://radmon.local" {
		t.Errorf("Monitor.URL = %q, want env override", cfg.Monitor.URL)
	}

	if cfg.Monitor.PollInterval != 5 {
		t.Errorf("Monitor.PollInterval = %d, want default 5", cfg.Monitor.PollInterval)
	}

	if cfg.RRD.UpdateInterval != 30 {
		t.Errorf("RRD.UpdateInterval = %d, want default 30", cfg.RRD.UpdateInterval)
	}

	if cfg.Charts.UpdateInterval != 300 {
		t.Errorf("Charts.UpdateInterval = %d, want default 300", cfg.Charts.UpdateInterval)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
monitor:
  url: ""
  poll_interval: 5
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty monitor.url, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name: "missing monitor URL",
			mutate: func(cfg *Config) {
				cfg.Monitor.URL = ""
			},
			wantErr: true,
		},
		{
			name: "mirror mode with source URL needs no device URL",
			mutate: func(cfg *Config) {
				cfg.Monitor.URL = ""
				cfg.Monitor.Mirror.Enabled = true
				cfg.Monitor.Mirror.SourceURL = "http://primary.example.com/radmonInputData.dat"
			},
			wantErr: false,
		},
		{
			name: "mirror mode without source URL",
			mutate: func(cfg *Config) {
				cfg.Monitor.Mirror.Enabled = true
			},
			wantErr: true,
		},
		{
			name: "zero poll interval",
			mutate: func(cfg *Config) {
				cfg.Monitor.PollInterval = 0
			},
			wantErr: true,
		},
		{
			name: "unknown timestamp source",
			mutate: func(cfg *Config) {
				cfg.Monitor.TimestampSource = "ntp"
			},
			wantErr: true,
		},
		{
			name: "missing output directory",
			mutate: func(cfg *Config) {
				cfg.Output.Directory = ""
			},
			wantErr: true,
		},
		{
			name: "missing rrd path",
			mutate: func(cfg *Config) {
				cfg.RRD.Path = ""
			},
			wantErr: true,
		},
		{
			name: "zero chart dimensions",
			mutate: func(cfg *Config) {
				cfg.Charts.Width = 0
			},
			wantErr: true,
		},
		{
			name: "invalid QoS ignored while mqtt disabled",
			mutate: func(cfg *Config) {
				cfg.MQTT.QoS = 3
			},
			wantErr: false,
		},
		{
			name: "invalid QoS with mqtt enabled",
			mutate: func(cfg *Config) {
				cfg.MQTT.Enabled = true
				cfg.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name: "influxdb enabled without token",
			mutate: func(cfg *Config) {
				cfg.InfluxDB.Enabled = true
				cfg.InfluxDB.Org = "home"
				cfg.InfluxDB.Bucket = "radmon"
			},
			wantErr: true,
		},
		{
			name: "journal enabled without path",
			mutate: func(cfg *Config) {
				cfg.Journal.Enabled = true
				cfg.Journal.Path = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetIntervals(t *testing.T) {
	cfg := &Config{
		Monitor: MonitorConfig{
			PollInterval:   5,
			RequestTimeout: 3,
		},
		RRD: RRDConfig{
			UpdateInterval: 30,
			CommandTimeout: 10,
		},
		Charts: ChartsConfig{
			UpdateInterval: 300,
		},
	}

	if got := cfg.GetPollInterval().Seconds(); got != 5 {
		t.Errorf("GetPollInterval() = %v, want 5", got)
	}

	if got := cfg.GetRequestTimeout().Seconds(); got != 3 {
		t.Errorf("GetRequestTimeout() = %v, want 3", got)
	}

	if got := cfg.GetDatabaseUpdateInterval().Seconds(); got != 30 {
		t.Errorf("GetDatabaseUpdateInterval() = %v, want 30", got)
	}

	if got := cfg.GetChartUpdateInterval().Seconds(); got != 300 {
		t.Errorf("GetChartUpdateInterval() = %v, want 300", got)
	}

	if got := cfg.GetCommandTimeout().Seconds(); got != 10 {
		t.Errorf("GetCommandTimeout() = %v, want 10", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("RADMOND_MONITOR_URL", "http://10.0.0.5")
	t.Setenv("RADMOND_OUTPUT_DIRECTORY", "/custom/dynamic")
	t.Setenv("RADMOND_RRD_PATH", "/custom/radmonData.rrd")
	t.Setenv("RADMOND_MQTT_HOST", "mqtt.example.com")
	t.Setenv("RADMOND_MQTT_USERNAME", "testuser")
	t.Setenv("RADMOND_MQTT_PASSWORD", "testpass")
	t.Setenv("RADMOND_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("RADMOND_JOURNAL_PATH", "/custom/radmond.db")

	applyEnvOverrides(cfg)

	if cfg.Monitor.URL != "http://10.0.0.5" {
		t.Errorf("Monitor.URL = %q, want %q", cfg.Monitor.URL, "http://10.0.0.5")
	}

	if cfg.Output.Directory != "/custom/dynamic" {
		t.Errorf("Output.Directory = %q, want %q", cfg.Output.Directory, "/custom/dynamic")
	}

	if cfg.RRD.Path != "/custom/radmonData.rrd" {
		t.Errorf("RRD.Path = %q, want %q", cfg.RRD.Path, "/custom/radmonData.rrd")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.Journal.Path != "/custom/radmond.db" {
		t.Errorf("Journal.Path = %q, want %q", cfg.Journal.Path, "/custom/radmond.db")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Monitor.PollInterval != 5 {
		t.Errorf("defaultConfig Monitor.PollInterval = %d, want 5", cfg.Monitor.PollInterval)
	}

	if cfg.Monitor.MaxFailedPolls != 2 {
		t.Errorf("defaultConfig Monitor.MaxFailedPolls = %d, want 2", cfg.Monitor.MaxFailedPolls)
	}

	if cfg.Monitor.TimestampSource != "device" {
		t.Errorf("defaultConfig Monitor.TimestampSource = %q, want %q", cfg.Monitor.TimestampSource, "device")
	}

	if cfg.Output.RawFile != "radmonInputData.dat" {
		t.Errorf("defaultConfig Output.RawFile = %q, want %q", cfg.Output.RawFile, "radmonInputData.dat")
	}

	if cfg.RRD.Binary != "rrdtool" {
		t.Errorf("defaultConfig RRD.Binary = %q, want %q", cfg.RRD.Binary, "rrdtool")
	}

	if cfg.MQTT.Enabled || cfg.InfluxDB.Enabled || cfg.Journal.Enabled {
		t.Error("defaultConfig should have all optional integrations disabled")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}
