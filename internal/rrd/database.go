package rrd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fractalxaos/radmond/internal/infrastructure/config"
	"github.com/fractalxaos/radmond/internal/record"
)

// Data source names within the round-robin database.
const (
	dsCPM     = "CPM"
	dsSvPerHr = "SvperHr"
)

// Database layout parameters. The short archive keeps every sample for a
// day; the long archive consolidates longTermSteps samples per row and
// keeps retentionDays of history.
const (
	retentionDays = 370
	longTermSteps = 30
	secondsPerDay = 86400

	// createBackdate shifts the database start time into the past so the
	// first sample after creation is accepted.
	createBackdate = 10
)

// staleMarker is the substring rrdtool prints when an update's timestamp
// is not newer than the last stored sample.
const staleMarker = "illegal attempt to update using time"

// Defaults applied when the configuration leaves values unset.
const (
	defaultBinary         = "rrdtool"
	defaultStep           = 30
	defaultCommandTimeout = 10 * time.Second
)

// Database appends radiation measurements to an rrdtool round-robin
// database file. Each sample stores counts per minute and the dose rate
// in whole sieverts per hour.
//
// Thread Safety: Database is used from the agent's polling loop only;
// methods are not safe for concurrent use.
type Database struct {
	binary  string
	path    string
	step    int
	timeout time.Duration
	runner  commandRunner
	logger  Logger

	// onStale is invoked when an update fails with a stale timestamp,
	// meaning the device clock has stopped advancing.
	onStale func()
}

// NewDatabase builds a Database from RRD configuration.
func NewDatabase(cfg config.RRDConfig) *Database {
	binary := cfg.Binary
	if binary == "" {
		binary = defaultBinary
	}
	step := cfg.UpdateInterval
	if step <= 0 {
		step = defaultStep
	}
	timeout := time.Duration(cfg.CommandTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	return &Database{
		binary:  binary,
		path:    cfg.Path,
		step:    step,
		timeout: timeout,
		runner:  execRunner{},
		logger:  noopLogger{},
	}
}

// SetLogger attaches a logger for command diagnostics.
func (d *Database) SetLogger(logger Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// SetOnStaleTimestamp sets a callback invoked when an update is rejected
// because its timestamp is not newer than the last stored sample. Must be
// called before the database is used.
func (d *Database) SetOnStaleTimestamp(callback func()) {
	d.onStale = callback
}

// Path returns the database file location.
func (d *Database) Path() string {
	return d.path
}

// Exists reports whether the database file is present on disk.
func (d *Database) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// Create builds a new round-robin database file. The layout derives from
// the configured update interval: a heartbeat of twice the step, one
// archive holding every sample for a day, and one consolidated archive
// holding retentionDays of history. Creating an existing database is a
// no-op.
func (d *Database) Create(ctx context.Context) error {
	if d.Exists() {
		d.logger.Info("database file already exists", "path", d.path)
		return nil
	}

	start := time.Now().Unix() - createBackdate
	heartbeat := 2 * d.step
	shortRows := secondsPerDay / d.step
	longRows := secondsPerDay * retentionDays / (d.step * longTermSteps)

	args := []string{
		"create", d.path,
		"--start", strconv.FormatInt(start, 10),
		"--step", strconv.Itoa(d.step),
		fmt.Sprintf("DS:%s:GAUGE:%d:U:U", dsCPM, heartbeat),
		fmt.Sprintf("DS:%s:GAUGE:%d:U:U", dsSvPerHr, heartbeat),
		fmt.Sprintf("RRA:AVERAGE:0.5:1:%d", shortRows),
		fmt.Sprintf("RRA:AVERAGE:0.5:%d:%d", longTermSteps, longRows),
	}

	d.logger.Debug("running rrdtool", "args", strings.Join(args, " "))

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	output, err := d.runner.Run(runCtx, d.binary, args...)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: timed out after %v", ErrCreateFailed, d.timeout)
		}
		return fmt.Errorf("%w: %w (output: %s)", ErrCreateFailed, err, strings.TrimSpace(string(output)))
	}

	d.logger.Info("created radiation database", "path", d.path, "step", d.step)
	return nil
}

// Update appends one converted measurement record to the database.
//
// The sample is <epoch>:<cpm>:<sievert per hour>. The database stores
// whole units, so the record's microsievert dose rate is scaled by 1e-6.
// A rejection caused by a stale timestamp returns ErrStaleTimestamp and
// fires the stale callback; any other failure returns ErrUpdateFailed.
func (d *Database) Update(ctx context.Context, rec record.Fields) error {
	epoch, ok := rec.Epoch()
	if !ok {
		return fmt.Errorf("%w: record has no epoch timestamp", ErrUpdateFailed)
	}
	cpm, ok := rec.CPM()
	if !ok {
		return fmt.Errorf("%w: record has no CPM reading", ErrUpdateFailed)
	}
	dose, ok := rec.DoseRate()
	if !ok {
		return fmt.Errorf("%w: record has no dose rate", ErrUpdateFailed)
	}
	uSv, err := strconv.ParseFloat(dose, 64)
	if err != nil {
		return fmt.Errorf("%w: bad dose rate %q: %w", ErrUpdateFailed, dose, err)
	}
	sv := uSv * 1e-6

	sample := fmt.Sprintf("%d:%d:%s", epoch, cpm, strconv.FormatFloat(sv, 'g', -1, 64))
	args := []string{"update", d.path, sample}

	d.logger.Debug("running rrdtool", "args", strings.Join(args, " "))

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	output, err := d.runner.Run(runCtx, d.binary, args...)
	if err != nil {
		out := strings.TrimSpace(string(output))
		if strings.Contains(out, staleMarker) {
			d.notifyStale()
			return fmt.Errorf("%w: %s", ErrStaleTimestamp, out)
		}
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: timed out after %v", ErrUpdateFailed, d.timeout)
		}
		return fmt.Errorf("%w: %w (output: %s)", ErrUpdateFailed, err, out)
	}

	d.logger.Debug("database update successful", "sample", sample)
	return nil
}

// notifyStale fires the stale-timestamp callback if one is set.
func (d *Database) notifyStale() {
	if d.onStale != nil {
		d.onStale()
	}
}
