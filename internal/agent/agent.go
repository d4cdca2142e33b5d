package agent

import (
	"context"
	"errors"
	"time"

	"github.com/fractalxaos/radmond/internal/infrastructure/config"
	"github.com/fractalxaos/radmond/internal/journal"
	"github.com/fractalxaos/radmond/internal/record"
	"github.com/fractalxaos/radmond/internal/sink"
	"github.com/fractalxaos/radmond/internal/station"
)

// shutdownTimeout bounds the journal write during shutdown, when the
// run context has already been cancelled.
const shutdownTimeout = 5 * time.Second

// Logger interface for dependency injection.
// Compatible with slog-based loggers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DeviceClient issues one request to the radiation monitor per poll
// cycle. Implemented by monitor.Client.
type DeviceClient interface {
	Fetch(ctx context.Context, reset bool) (string, error)
}

// TimeSeriesStore appends converted records to the round-robin
// database. Implemented by rrd.Database.
type TimeSeriesStore interface {
	Update(ctx context.Context, rec record.Fields) error
}

// ChartDispatcher renders the chart set off the polling loop.
// Implemented by rrd.ChartSet.
type ChartDispatcher interface {
	Dispatch(ctx context.Context) bool
	Wait()
}

// EventJournal records agent lifecycle events. Implemented by
// journal.Journal.
type EventJournal interface {
	Record(ctx context.Context, event, detail string) error
}

// MeasurementPublisher forwards converted records to an MQTT broker.
// Implemented by mqtt.Publisher.
type MeasurementPublisher interface {
	PublishMeasurement(rec record.Fields) error
}

// MeasurementMirror copies converted records into a secondary store.
// Implemented by influxdb.Client.
type MeasurementMirror interface {
	WriteMeasurement(rec record.Fields) error
}

// Options configures a new Agent. Config, Monitor, Tracker, Sink,
// Database and Charts are required; Journal, Publisher and Mirror are
// optional integrations and may be left nil.
type Options struct {
	Config    *config.Config
	Monitor   DeviceClient
	Tracker   *station.Tracker
	Sink      *sink.Sink
	Database  TimeSeriesStore
	Charts    ChartDispatcher
	Journal   EventJournal
	Publisher MeasurementPublisher
	Mirror    MeasurementMirror
	Logger    Logger
}

// Agent is the executive loop of the radiation monitor service.
//
// Three cadences run off one timing reference per iteration: the device
// poll, the database update (evaluated only after a successful poll),
// and the chart render dispatch. Between iterations the agent sleeps
// out the remainder of the poll interval, interruptibly.
type Agent struct {
	monitor   DeviceClient
	converter *record.Converter
	tracker   *station.Tracker
	sink      *sink.Sink
	database  TimeSeriesStore
	charts    ChartDispatcher
	journal   EventJournal
	publisher MeasurementPublisher
	mirror    MeasurementMirror
	logger    Logger

	pollInterval     time.Duration
	databaseInterval time.Duration
	chartInterval    time.Duration

	// Last-fired timestamps for the three cadences. Zero values make
	// every cadence due on the first iteration.
	lastPoll     time.Time
	lastDatabase time.Time
	lastCharts   time.Time
}

// New creates an Agent from its assembled components.
//
// Cadence intervals and the timestamp source are taken from the
// configuration; everything else arrives ready to use.
func New(opts Options) (*Agent, error) {
	if opts.Config == nil {
		return nil, errors.New("agent: config is required")
	}
	if opts.Monitor == nil {
		return nil, errors.New("agent: device client is required")
	}
	if opts.Tracker == nil {
		return nil, errors.New("agent: availability tracker is required")
	}
	if opts.Sink == nil {
		return nil, errors.New("agent: output sink is required")
	}
	if opts.Database == nil {
		return nil, errors.New("agent: time-series store is required")
	}
	if opts.Charts == nil {
		return nil, errors.New("agent: chart dispatcher is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Agent{
		monitor:   opts.Monitor,
		converter: record.NewConverter(opts.Config.Monitor.TimestampSource == "local"),
		tracker:   opts.Tracker,
		sink:      opts.Sink,
		database:  opts.Database,
		charts:    opts.Charts,
		journal:   opts.Journal,
		publisher: opts.Publisher,
		mirror:    opts.Mirror,
		logger:    logger,

		pollInterval:     opts.Config.GetPollInterval(),
		databaseInterval: opts.Config.GetDatabaseUpdateInterval(),
		chartInterval:    opts.Config.GetChartUpdateInterval(),
	}, nil
}

// Run executes the scheduling loop until the context is cancelled.
// It always returns nil; component failures are logged and absorbed by
// the availability tracker rather than terminating the loop.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent started",
		"poll_interval", a.pollInterval,
		"database_interval", a.databaseInterval,
		"chart_interval", a.chartInterval,
	)
	a.journalEvent(ctx, journal.EventAgentStart, "")

	for {
		now := time.Now()

		if now.Sub(a.lastPoll) > a.pollInterval {
			a.lastPoll = now
			a.poll(ctx, now)
		}

		if now.Sub(a.lastCharts) > a.chartInterval {
			a.lastCharts = now
			if !a.charts.Dispatch(ctx) {
				a.logger.Debug("chart generation still running, dispatch skipped")
			}
		}

		remaining := a.pollInterval - time.Since(now)
		if remaining < 0 {
			remaining = 0
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			a.shutdown()
			return nil
		case <-timer.C:
		}
	}
}

// poll runs one device request cycle: fetch, parse, convert, store.
// The outcome, success or failure, feeds the availability tracker.
func (a *Agent) poll(ctx context.Context, now time.Time) {
	reset := a.tracker.ResetRequested()
	if reset {
		a.logger.Info("requesting radiation monitor reset")
	}

	raw, err := a.monitor.Fetch(ctx, reset)
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down, not a device failure.
			return
		}
		a.logger.Warn("device request failed", "error", err)
		a.tracker.Update(false)
		return
	}

	rec, err := record.Parse(raw)
	if err != nil {
		a.logger.Warn("record rejected", "error", err)
		a.tracker.Update(false)
		return
	}

	if err := a.converter.Convert(rec); err != nil {
		a.logger.Warn("record conversion failed", "error", err)
		a.tracker.Update(false)
		return
	}

	a.store(ctx, now, raw, rec)
	a.tracker.Update(true)
}

// store distributes one converted record: output artifacts first, then
// the optional integrations, then the database when its cadence is due.
// Storage failures are logged but never influence availability.
func (a *Agent) store(ctx context.Context, now time.Time, raw string, rec record.Fields) {
	if err := a.sink.WriteRaw(raw); err != nil {
		a.logger.Error("raw artifact write failed", "error", err)
	}
	if err := a.sink.WriteRecord(rec); err != nil {
		a.logger.Error("data artifact write failed", "error", err)
	}

	if a.publisher != nil {
		if err := a.publisher.PublishMeasurement(rec); err != nil {
			a.logger.Warn("measurement publish failed", "error", err)
		}
	}
	if a.mirror != nil {
		if err := a.mirror.WriteMeasurement(rec); err != nil {
			a.logger.Warn("measurement mirror failed", "error", err)
		}
	}

	if now.Sub(a.lastDatabase) > a.databaseInterval {
		a.lastDatabase = now
		if err := a.database.Update(ctx, rec); err != nil {
			a.logger.Error("database update failed", "error", err)
		}
	}
}

// shutdown honours the clean-termination contract: both output
// artifacts are removed so downstream consumers see "no data" rather
// than stale data, and the chart worker is waited out.
func (a *Agent) shutdown() {
	a.logger.Info("shutdown signal received, cleaning up")

	// The run context is already cancelled; give the journal its own
	// bounded context for the final event.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.journalEvent(ctx, journal.EventAgentStop, "")

	a.sink.RemoveAll()
	a.charts.Wait()

	a.logger.Info("agent stopped")
}

// journalEvent records a lifecycle event when a journal is configured.
// Journal failures are logged and never interrupt the loop.
func (a *Agent) journalEvent(ctx context.Context, event, detail string) {
	if a.journal == nil {
		return
	}
	if err := a.journal.Record(ctx, event, detail); err != nil {
		a.logger.Warn("journal write failed", "event", event, "error", err)
	}
}
