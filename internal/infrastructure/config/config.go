package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for radmond.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Monitor  MonitorConfig  `yaml:"monitor"`
	Output   OutputConfig   `yaml:"output"`
	RRD      RRDConfig      `yaml:"rrd"`
	Charts   ChartsConfig   `yaml:"charts"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Journal  JournalConfig  `yaml:"journal"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MonitorConfig contains radiation monitor device settings.
type MonitorConfig struct {
	// URL is the base address of the radiation monitor device.
	// The agent appends "/rdata" (data request) or "/reset" (reboot request).
	URL string `yaml:"url"`

	// PollInterval is how often to request data from the device (in seconds).
	// Default: 5
	PollInterval int `yaml:"poll_interval"`

	// RequestTimeout is the HTTP request timeout (in seconds).
	// Default: 3
	RequestTimeout int `yaml:"request_timeout"`

	// MaxFailedPolls is the number of consecutive failed polls after which
	// the device is declared offline.
	// Default: 2
	MaxFailedPolls int `yaml:"max_failed_polls"`

	// TimestampSource selects which clock stamps stored measurements:
	// "device" trusts the timestamp reported by the monitor, "local" uses
	// the agent's own clock. Use "local" when the device cannot reach an
	// NTP server and its clock drifts.
	// Default: "device"
	TimestampSource string `yaml:"timestamp_source"`

	// Mirror configures mirror mode, where data is fetched from a primary
	// server's raw artifact instead of directly from the device.
	Mirror MirrorConfig `yaml:"mirror"`
}

// MirrorConfig contains mirror mode settings.
type MirrorConfig struct {
	// Enabled switches the agent into mirror mode.
	Enabled bool `yaml:"enabled"`

	// SourceURL is the full URL of the primary server's raw data artifact.
	SourceURL string `yaml:"source_url"`
}

// OutputConfig contains output artifact settings.
type OutputConfig struct {
	// Directory is where the raw and structured artifacts are written.
	// Downstream web documents read from here.
	Directory string `yaml:"directory"`

	// RawFile is the raw artifact filename within Directory.
	// Default: "radmonInputData.dat"
	RawFile string `yaml:"raw_file"`

	// DataFile is the structured JSON artifact filename within Directory.
	// Default: "radmonOutputData.js"
	DataFile string `yaml:"data_file"`
}

// RRDConfig contains round-robin database settings.
type RRDConfig struct {
	// Binary is the path to the rrdtool executable.
	// Default: "rrdtool"
	Binary string `yaml:"binary"`

	// Path is the location of the round-robin database file.
	Path string `yaml:"path"`

	// UpdateInterval is how often measurements are appended (in seconds).
	// Default: 30
	UpdateInterval int `yaml:"update_interval"`

	// CommandTimeout bounds each rrdtool invocation (in seconds).
	// Default: 10
	CommandTimeout int `yaml:"command_timeout"`
}

// ChartsConfig contains trend chart rendering settings.
type ChartsConfig struct {
	// Directory is where chart images are written.
	// Defaults to the output directory when empty.
	Directory string `yaml:"directory"`

	// UpdateInterval is how often the chart set is regenerated (in seconds).
	// Default: 300
	UpdateInterval int `yaml:"update_interval"`

	// Width and Height set chart dimensions in pixels.
	// Defaults: 600 x 150
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// MQTTConfig contains MQTT publisher settings.
type MQTTConfig struct {
	// Enabled turns the MQTT publisher on. Disabled by default; the core
	// artifact pipeline does not depend on a broker.
	Enabled bool `yaml:"enabled"`

	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB mirror store settings.
type InfluxDBConfig struct {
	// Enabled turns the InfluxDB mirror on. Disabled by default; rrdtool
	// remains the primary time-series store either way.
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// JournalConfig contains availability event journal settings.
type JournalConfig struct {
	// Enabled turns the SQLite event journal on. Disabled by default.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file location.
	// Default: "./data/radmond.db"
	Path string `yaml:"path"`

	// BusyTimeout is the SQLite busy timeout (in seconds).
	// Default: 5
	BusyTimeout int `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. .env file in the working directory (best effort)
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: RADMOND_SECTION_KEY
// For example: RADMOND_MONITOR_URL, RADMOND_RRD_PATH
//
// An empty path skips the YAML layer entirely so the agent can run from
// defaults, environment, and command-line flags alone.
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for none
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If a named file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file when one is named
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Overlay a .env file if one exists; absence is not an error.
	_ = godotenv.Load()

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Charts land next to the other artifacts unless told otherwise.
	if cfg.Charts.Directory == "" {
		cfg.Charts.Directory = cfg.Output.Directory
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			PollInterval:    5,
			RequestTimeout:  3,
			MaxFailedPolls:  2,
			TimestampSource: "device",
		},
		Output: OutputConfig{
			Directory: "./public/dynamic",
			RawFile:   "radmonInputData.dat",
			DataFile:  "radmonOutputData.js",
		},
		RRD: RRDConfig{
			Binary:         "rrdtool",
			Path:           "./data/radmonData.rrd",
			UpdateInterval: 30,
			CommandTimeout: 10,
		},
		Charts: ChartsConfig{
			UpdateInterval: 300,
			Width:          600,
			Height:         150,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "radmond",
			},
			QoS:         1,
			TopicPrefix: "radmond",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Journal: JournalConfig{
			Path:        "./data/radmond.db",
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RADMOND_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Monitor
	if v := os.Getenv("RADMOND_MONITOR_URL"); v != "" {
		cfg.Monitor.URL = v
	}
	if v := os.Getenv("RADMOND_MONITOR_MIRROR_SOURCE_URL"); v != "" {
		cfg.Monitor.Mirror.SourceURL = v
	}

	// Output
	if v := os.Getenv("RADMOND_OUTPUT_DIRECTORY"); v != "" {
		cfg.Output.Directory = v
	}

	// RRD
	if v := os.Getenv("RADMOND_RRD_PATH"); v != "" {
		cfg.RRD.Path = v
	}

	// MQTT
	if v := os.Getenv("RADMOND_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RADMOND_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RADMOND_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("RADMOND_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Journal
	if v := os.Getenv("RADMOND_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Monitor validation
	if c.Monitor.Mirror.Enabled {
		if c.Monitor.Mirror.SourceURL == "" {
			errs = append(errs, "monitor.mirror.source_url is required when mirror mode is enabled")
		}
	} else if c.Monitor.URL == "" {
		errs = append(errs, "monitor.url is required")
	}
	if c.Monitor.PollInterval < 1 {
		errs = append(errs, "monitor.poll_interval must be at least 1 second")
	}
	if c.Monitor.RequestTimeout < 1 {
		errs = append(errs, "monitor.request_timeout must be at least 1 second")
	}
	if c.Monitor.MaxFailedPolls < 1 {
		errs = append(errs, "monitor.max_failed_polls must be at least 1")
	}
	switch c.Monitor.TimestampSource {
	case "device", "local":
	default:
		errs = append(errs, "monitor.timestamp_source must be \"device\" or \"local\"")
	}

	// Output validation
	if c.Output.Directory == "" {
		errs = append(errs, "output.directory is required")
	}
	if c.Output.RawFile == "" {
		errs = append(errs, "output.raw_file is required")
	}
	if c.Output.DataFile == "" {
		errs = append(errs, "output.data_file is required")
	}

	// RRD validation
	if c.RRD.Binary == "" {
		errs = append(errs, "rrd.binary is required")
	}
	if c.RRD.Path == "" {
		errs = append(errs, "rrd.path is required")
	}
	if c.RRD.UpdateInterval < 1 {
		errs = append(errs, "rrd.update_interval must be at least 1 second")
	}
	if c.RRD.CommandTimeout < 1 {
		errs = append(errs, "rrd.command_timeout must be at least 1 second")
	}

	// Charts validation
	if c.Charts.UpdateInterval < 1 {
		errs = append(errs, "charts.update_interval must be at least 1 second")
	}
	if c.Charts.Width < 1 || c.Charts.Height < 1 {
		errs = append(errs, "charts.width and charts.height must be positive")
	}

	// MQTT validation (only when the publisher is enabled)
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
		}
	}

	// InfluxDB validation (only when the mirror store is enabled)
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set RADMOND_INFLUXDB_TOKEN environment variable)")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	// Journal validation (only when the journal is enabled)
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when journal is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetPollInterval returns the device poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Monitor.PollInterval) * time.Second
}

// GetRequestTimeout returns the device request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Monitor.RequestTimeout) * time.Second
}

// GetDatabaseUpdateInterval returns the rrdtool update interval as a Duration.
func (c *Config) GetDatabaseUpdateInterval() time.Duration {
	return time.Duration(c.RRD.UpdateInterval) * time.Second
}

// GetChartUpdateInterval returns the chart regeneration interval as a Duration.
func (c *Config) GetChartUpdateInterval() time.Duration {
	return time.Duration(c.Charts.UpdateInterval) * time.Second
}

// GetCommandTimeout returns the rrdtool command timeout as a Duration.
func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.RRD.CommandTimeout) * time.Second
}
