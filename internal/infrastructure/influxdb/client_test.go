package influxdb_test

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/fractalxaos/radmond/internal/infrastructure/config"
	"github.com/fractalxaos/radmond/internal/infrastructure/influxdb"
	"github.com/fractalxaos/radmond/internal/record"
)

// fakeInflux imitates the two InfluxDB endpoints the client touches:
// GET /ping for connectivity and POST /api/v2/write for line protocol.
type fakeInflux struct {
	server *httptest.Server

	mu      sync.Mutex
	writes  []string
	queries []url.Values
}

func newFakeInflux(t *testing.T) *fakeInflux {
	t.Helper()

	f := &fakeInflux{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping":
			w.WriteHeader(http.StatusNoContent)
		case "/api/v2/write":
			var reader io.Reader = r.Body
			if r.Header.Get("Content-Encoding") == "gzip" {
				gz, err := gzip.NewReader(r.Body)
				if err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				reader = gz
			}
			data, err := io.ReadAll(reader)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.mu.Lock()
			f.writes = append(f.writes, string(data))
			f.queries = append(f.queries, r.URL.Query())
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.server.Close)

	return f
}

// lines returns every line protocol line received so far.
func (f *fakeInflux) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []string
	for _, w := range f.writes {
		for _, line := range strings.Split(strings.TrimSpace(w), "\n") {
			if line != "" {
				all = append(all, line)
			}
		}
	}
	return all
}

func (f *fakeInflux) lastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queries) == 0 {
		return nil
	}
	return f.queries[len(f.queries)-1]
}

func testConfig(serverURL string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           serverURL,
		Token:         "radmond-test-token",
		Org:           "home",
		Bucket:        "radiation",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func convertedRecord() record.Fields {
	return record.Fields{
		record.FieldTimestamp: int64(1577865600),
		record.FieldMode:      "slow",
		record.FieldDoseRate:  "0.12",
		record.FieldCPM:       20,
		record.FieldCPS:       0,
		record.FieldStatus:    record.StatusOnline,
	}
}

func TestConnect(t *testing.T) {
	f := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(f.server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:59999") // Non-existent port

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWriteMeasurement(t *testing.T) {
	f := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(f.server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var writeErr error
	var mu sync.Mutex
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})

	if err := client.WriteMeasurement(convertedRecord()); err != nil {
		t.Fatalf("WriteMeasurement() error = %v", err)
	}
	client.Flush()

	lines := f.lines()
	if len(lines) != 1 {
		t.Fatalf("server received %d lines, want 1", len(lines))
	}

	line := lines[0]
	if !strings.HasPrefix(line, "radiation,mode=slow ") {
		t.Errorf("line = %q, want radiation,mode=slow prefix", line)
	}
	for _, field := range []string{"cpm=20i", "cps=0i", "usv_per_hr=0.12"} {
		if !strings.Contains(line, field) {
			t.Errorf("line %q missing field %s", line, field)
		}
	}
	if !strings.HasSuffix(line, " 1577865600000000000") {
		t.Errorf("line = %q, want nanosecond epoch suffix", line)
	}

	if q := f.lastQuery(); q.Get("org") != "home" || q.Get("bucket") != "radiation" {
		t.Errorf("write query = %v, want org=home bucket=radiation", q)
	}

	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		t.Errorf("async write error = %v", writeErr)
	}
}

func TestWriteMeasurement_RejectsUnconverted(t *testing.T) {
	f := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(f.server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	tests := []struct {
		name   string
		mutate func(record.Fields)
	}{
		{"raw timestamp", func(r record.Fields) { r[record.FieldTimestamp] = "08:21:45 08/22/2025" }},
		{"missing mode", func(r record.Fields) { delete(r, record.FieldMode) }},
		{"missing cpm", func(r record.Fields) { delete(r, record.FieldCPM) }},
		{"missing cps", func(r record.Fields) { delete(r, record.FieldCPS) }},
		{"missing dose rate", func(r record.Fields) { delete(r, record.FieldDoseRate) }},
		{"malformed dose rate", func(r record.Fields) { r[record.FieldDoseRate] = "hot" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := convertedRecord()
			tt.mutate(rec)
			if err := client.WriteMeasurement(rec); !errors.Is(err, influxdb.ErrWriteFailed) {
				t.Errorf("WriteMeasurement() error = %v, want ErrWriteFailed", err)
			}
		})
	}

	client.Flush()
	if lines := f.lines(); len(lines) != 0 {
		t.Errorf("server received %d lines from rejected records, want 0", len(lines))
	}
}

func TestClose_FlushesPending(t *testing.T) {
	f := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(f.server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.WriteMeasurement(convertedRecord()); err != nil {
		t.Fatalf("WriteMeasurement() error = %v", err)
	}

	// Close should flush the buffered point without an explicit Flush.
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if lines := f.lines(); len(lines) != 1 {
		t.Errorf("server received %d lines after Close, want 1", len(lines))
	}
}

func TestWriteMeasurement_AfterClose(t *testing.T) {
	f := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(f.server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := client.WriteMeasurement(convertedRecord()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("WriteMeasurement() after Close error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(f.server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestHealthCheck_AfterClose(t *testing.T) {
	f := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(f.server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
}
