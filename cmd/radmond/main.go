// radmond - Radiation Monitor Agent
//
// This is the main entry point for the radmond polling agent. The agent
// periodically requests readings from a networked radiation monitor
// over HTTP, maintains an rrdtool round-robin database and trend charts,
// and publishes data artifacts consumed by the station's web document.
// Measurements can optionally be forwarded to an MQTT broker and an
// InfluxDB instance, and availability events recorded in a SQLite
// journal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fractalxaos/radmond/internal/agent"
	"github.com/fractalxaos/radmond/internal/infrastructure/config"
	"github.com/fractalxaos/radmond/internal/infrastructure/influxdb"
	"github.com/fractalxaos/radmond/internal/infrastructure/logging"
	"github.com/fractalxaos/radmond/internal/infrastructure/mqtt"
	"github.com/fractalxaos/radmond/internal/journal"
	"github.com/fractalxaos/radmond/internal/monitor"
	"github.com/fractalxaos/radmond/internal/rrd"
	"github.com/fractalxaos/radmond/internal/sink"
	"github.com/fractalxaos/radmond/internal/station"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// outputDirPermissions allows the web server, running as another user,
// to read artifacts and charts.
const outputDirPermissions = 0o755

// journalWriteTimeout bounds journal writes made from callbacks.
const journalWriteTimeout = 5 * time.Second

// options holds the parsed command-line flags.
type options struct {
	configPath string
	debug      bool
	verbose    bool
	pollSecs   int
	deviceURL  string
	createDB   bool
}

func main() {
	opts := parseOptions()

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseOptions reads the command-line flags.
func parseOptions() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to the configuration file")
	flag.BoolVar(&opts.debug, "d", false, "enable debug logging")
	flag.BoolVar(&opts.verbose, "v", false, "enable debug logging including subprocess command echo")
	flag.IntVar(&opts.pollSecs, "t", 0, "override the device poll interval (seconds)")
	flag.StringVar(&opts.deviceURL, "u", "", "override the radiation monitor base URL")
	flag.BoolVar(&opts.createDB, "createdb", false, "create the round-robin database and exit")
	flag.Parse()
	return opts
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - opts: Parsed command-line flags
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, opts options) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting radmond",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath(opts)
	cfg, err := loadConfig(configPath, opts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if configPath != "" {
		log.Info("configuration loaded", "path", configPath)
	} else {
		log.Info("configuration loaded from defaults and environment")
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Artifacts and charts land in web-served directories
	if err := os.MkdirAll(cfg.Output.Directory, outputDirPermissions); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.MkdirAll(cfg.Charts.Directory, outputDirPermissions); err != nil {
		return fmt.Errorf("creating charts directory: %w", err)
	}

	// Round-robin database
	db := rrd.NewDatabase(cfg.RRD)
	db.SetLogger(log.With("component", "rrd"))

	if opts.createDB {
		if createErr := db.Create(ctx); createErr != nil {
			return fmt.Errorf("creating database: %w", createErr)
		}
		log.Info("database ready", "path", db.Path())
		return nil
	}

	if !db.Exists() {
		return fmt.Errorf("database %s does not exist (run radmond -createdb first)", db.Path())
	}
	log.Info("database found", "path", db.Path())

	charts := rrd.NewChartSet(db, cfg.Charts)
	charts.SetLogger(log.With("component", "charts"))

	// Output artifacts and availability tracking
	outputs := sink.New(cfg.Output.Directory, cfg.Output.RawFile, cfg.Output.DataFile)
	outputs.SetLogger(log.With("component", "sink"))

	tracker := station.New(cfg.Monitor.MaxFailedPolls, outputs)
	tracker.SetLogger(log.With("component", "station"))

	// Device client
	monitorClient := monitor.New(cfg.Monitor)
	monitorClient.SetLogger(log.With("component", "monitor"))
	if cfg.Monitor.Mirror.Enabled {
		log.Info("mirror mode enabled", "source", cfg.Monitor.Mirror.SourceURL)
	} else {
		log.Info("polling radiation monitor", "url", cfg.Monitor.URL)
	}

	// Open event journal (optional)
	var eventJournal *journal.Journal
	if cfg.Journal.Enabled {
		eventJournal, err = journal.Open(cfg.Journal)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer func() {
			log.Info("closing journal")
			if closeErr := eventJournal.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()
		log.Info("journal opened", "path", eventJournal.Path())
	} else {
		log.Info("journal disabled")
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	var publisher *mqtt.Publisher
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		publisher = mqtt.NewPublisher(mqttClient)

		// Republish the retained status on every reconnect so a broker
		// restart cannot leave the LWT "offline" standing while the
		// monitor is up.
		mqttClient.SetOnConnect(func() {
			if pubErr := publisher.PublishStatus(tracker.Online()); pubErr != nil {
				log.Warn("status publish failed", "error", pubErr)
			}
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT connection lost", "error", err)
		})

		if pubErr := publisher.PublishStatus(tracker.Online()); pubErr != nil {
			log.Warn("initial status publish failed", "error", pubErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// A stale-timestamp rejection means the device clock has stopped
	// advancing; request a reboot on the next poll.
	db.SetOnStaleTimestamp(func() {
		log.Warn("database rejected a stale timestamp, rebooting radiation monitor")
		tracker.RequestReset()
		journalEvent(eventJournal, log, journal.EventResetRequested, "database rejected a stale timestamp")
	})

	// Availability transitions feed the journal and the retained MQTT
	// status topic.
	tracker.SetOnTransition(func(status station.Status) {
		switch status {
		case station.StatusOnline:
			journalEvent(eventJournal, log, journal.EventMonitorOnline, "")
		case station.StatusOffline:
			journalEvent(eventJournal, log, journal.EventMonitorOffline, "")
		}
		if publisher != nil {
			if pubErr := publisher.PublishStatus(status == station.StatusOnline); pubErr != nil {
				log.Warn("status publish failed", "error", pubErr)
			}
		}
	})

	// Assemble the agent. Optional integrations are only wired when
	// their clients exist, keeping the interface fields nil otherwise.
	agentOpts := agent.Options{
		Config:   cfg,
		Monitor:  monitorClient,
		Tracker:  tracker,
		Sink:     outputs,
		Database: db,
		Charts:   charts,
		Logger:   log.With("component", "agent"),
	}
	if eventJournal != nil {
		agentOpts.Journal = eventJournal
	}
	if publisher != nil {
		agentOpts.Publisher = publisher
	}
	if influxClient != nil {
		agentOpts.Mirror = influxClient
	}

	pollAgent, err := agent.New(agentOpts)
	if err != nil {
		return fmt.Errorf("creating agent: %w", err)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient, eventJournal); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete")

	// Run the polling loop until the context is cancelled. Deferred
	// Close() calls then run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. MQTT (if enabled; publishes retained offline status)
	// 3. Journal (if enabled)
	return pollAgent.Run(ctx)
}

// getConfigPath resolves the configuration file location: the -config
// flag wins, then the RADMOND_CONFIG environment variable, then the
// default path. The default is only used when the file exists, so the
// agent can also run from built-in defaults, environment variables and
// flags alone.
func getConfigPath(opts options) string {
	if opts.configPath != "" {
		return opts.configPath
	}
	if path := os.Getenv("RADMOND_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// loadConfig loads the configuration and folds in the command-line
// overrides.
//
// The device URL override rides the documented environment hook so it
// participates in Load's validation; a bare "radmond -u <url>" then
// works without any config file. The remaining overrides cannot fail
// validation and are applied to the loaded result: the poll interval
// uses the magnitude of the given value, and -d or -v force debug
// logging.
func loadConfig(path string, opts options) (*config.Config, error) {
	if opts.deviceURL != "" {
		if err := os.Setenv("RADMOND_MONITOR_URL", opts.deviceURL); err != nil {
			return nil, fmt.Errorf("applying device URL override: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if opts.pollSecs != 0 {
		secs := opts.pollSecs
		if secs < 0 {
			secs = -secs
		}
		cfg.Monitor.PollInterval = secs
	}
	if opts.debug || opts.verbose {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}

// journalEvent records an event when the journal is enabled. Failures
// are logged and absorbed.
func journalEvent(j *journal.Journal, log *logging.Logger, event, detail string) {
	if j == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()

	if err := j.Record(ctx, event, detail); err != nil {
		log.Warn("journal write failed", "event", event, "error", err)
	}
}

// healthCheck verifies the optional infrastructure connections. Each
// client may be nil when its integration is disabled.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check (nil if disabled)
//   - influxClient: InfluxDB client to check (nil if disabled)
//   - eventJournal: Journal to check (nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client, eventJournal *journal.Journal) error {
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if eventJournal != nil {
		if err := eventJournal.HealthCheck(ctx); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	// The rrdtool database is verified at startup via Exists; the device
	// is polled continuously rather than health-checked here.

	return nil
}
