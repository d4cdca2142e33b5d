package rrd

import (
	"context"
	"os/exec"
)

// commandRunner executes one rrdtool invocation and returns its combined
// stdout/stderr output. Abstracted so tests can capture argument vectors
// without a real rrdtool binary.
type commandRunner interface {
	Run(ctx context.Context, binary string, args ...string) ([]byte, error)
}

// execRunner runs rrdtool as a subprocess.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.CombinedOutput()
}

// Logger is the minimal logging interface used by the rrd package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output (used when no logger is set).
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
