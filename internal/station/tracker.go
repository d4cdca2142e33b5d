package station

import "sync"

// Status of the radiation monitor as observed by the agent.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// defaultMaxFailures is how many consecutive failed polls mark the
// monitor offline when no limit is configured.
const defaultMaxFailures = 2

// ArtifactRemover removes the output artifacts that advertise live data
// to downstream consumers. Implemented by sink.Sink.
type ArtifactRemover interface {
	RemoveAll()
}

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

// Tracker is the availability state machine for the radiation monitor.
//
// It starts Online and is fed the outcome of every poll cycle. After the
// configured number of consecutive failures it transitions Offline,
// removing both output artifacts so downstream consumers see "no data"
// instead of stale data; the first subsequent success transitions it back.
// Each transition is logged exactly once per episode.
//
// The tracker also owns the device reset flag: the time-series writer
// raises it when the database rejects a stale timestamp, the scheduler
// reads it to select the reset request path, and the next successful poll
// clears it.
//
// All methods are safe for concurrent use.
type Tracker struct {
	mu             sync.Mutex
	online         bool
	failures       int
	maxFailures    int
	resetRequested bool

	artifacts    ArtifactRemover
	onTransition func(Status)
	logger       Logger
}

// New creates a Tracker in the Online state.
//
// Parameters:
//   - maxFailures: Consecutive failures before the Offline transition
//     (defaults to 2 when < 1)
//   - artifacts: Artifact remover invoked on the Offline transition
func New(maxFailures int, artifacts ArtifactRemover) *Tracker {
	if maxFailures < 1 {
		maxFailures = defaultMaxFailures
	}

	return &Tracker{
		online:      true,
		maxFailures: maxFailures,
		artifacts:   artifacts,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the tracker.
func (t *Tracker) SetLogger(logger Logger) {
	t.logger = logger
}

// SetOnTransition registers a callback fired after every state change,
// outside the tracker's lock. Used to journal transitions and publish
// status updates; callback failures never feed back into the machine.
func (t *Tracker) SetOnTransition(fn func(Status)) {
	t.onTransition = fn
}

// Update feeds one poll-cycle outcome into the state machine.
//
// On success the failure counter and reset flag clear, and a previously
// Offline monitor comes back Online. On failure the counter increments;
// reaching the limit while Online transitions to Offline and removes both
// output artifacts. Repeat failures beyond the limit do not re-fire the
// transition.
func (t *Tracker) Update(success bool) {
	t.mu.Lock()

	var transition Status
	fired := false

	if success {
		t.failures = 0
		t.resetRequested = false
		if !t.online {
			t.online = true
			transition = StatusOnline
			fired = true
		}
	} else {
		t.failures++
		if t.failures >= t.maxFailures && t.online {
			t.online = false
			transition = StatusOffline
			fired = true
		}
	}

	t.mu.Unlock()

	if !fired {
		return
	}

	switch transition {
	case StatusOnline:
		t.logger.Info("radiation monitor online")
	case StatusOffline:
		t.logger.Warn("radiation monitor offline")
		t.artifacts.RemoveAll()
	}

	if t.onTransition != nil {
		t.onTransition(transition)
	}
}

// RequestReset raises the device reset flag. The next poll issues the
// reset request path instead of the data request path.
func (t *Tracker) RequestReset() {
	t.mu.Lock()
	t.resetRequested = true
	t.mu.Unlock()
}

// ResetRequested reports whether a device reset is pending.
func (t *Tracker) ResetRequested() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resetRequested
}

// Online reports whether the monitor is currently considered online.
func (t *Tracker) Online() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online
}

// Status returns the current availability state.
func (t *Tracker) Status() Status {
	if t.Online() {
		return StatusOnline
	}
	return StatusOffline
}
