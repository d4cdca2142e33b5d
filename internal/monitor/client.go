package monitor

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fractalxaos/radmond/internal/infrastructure/config"
)

// Device endpoint paths appended to the configured base URL.
const (
	pathData  = "/rdata"
	pathReset = "/reset"
)

// defaultRequestTimeout bounds a single device exchange when the
// configuration does not supply a positive timeout.
const defaultRequestTimeout = 3 * time.Second

// Logger is the minimal logging interface used by the monitor package.
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

// Client fetches radiation readings from the monitoring device over HTTP.
//
// The device answers GET /rdata with one record of comma-separated
// key=value text and GET /reset by rebooting itself. In mirror mode the
// client instead requests the raw record artifact published by a primary
// server; there is no device behind a mirror, so reset requests degrade
// to ordinary fetches.
//
// Thread Safety: Fetch is safe for concurrent use; SetLogger is not and
// must be called before the client is shared.
type Client struct {
	baseURL    string
	mirrorURL  string
	mirrored   bool
	httpClient *http.Client
	logger     Logger
}

// New builds a device client from monitor configuration.
func New(cfg config.MonitorConfig) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		mirrorURL:  cfg.Mirror.SourceURL,
		mirrored:   cfg.Mirror.Enabled,
		httpClient: &http.Client{Timeout: timeout},
		logger:     noopLogger{},
	}
}

// SetLogger attaches a logger for request diagnostics.
func (c *Client) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Fetch requests a reading from the device and returns the raw record text.
//
// When reset is true the device's reset endpoint is requested instead of
// the data endpoint; the device reboots and the response carries no usable
// record. Transport failures, timeouts and non-2xx statuses all wrap
// ErrDeviceUnavailable so callers can treat them uniformly as the device
// being offline.
func (c *Client) Fetch(ctx context.Context, reset bool) (string, error) {
	url := c.requestURL(reset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("monitor: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: status %d", ErrDeviceUnavailable, resp.StatusCode)
	}

	// The device emits the record over several short lines; collapse them
	// into a single string with surrounding whitespace removed.
	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		sb.WriteString(strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrDeviceUnavailable, err)
	}

	c.logger.Debug("device request complete", "url", url, "elapsed", time.Since(start))

	return sb.String(), nil
}

// requestURL resolves the target URL for a single fetch.
func (c *Client) requestURL(reset bool) string {
	if c.mirrored {
		return c.mirrorURL
	}
	if reset {
		return c.baseURL + pathReset
	}
	return c.baseURL + pathData
}
