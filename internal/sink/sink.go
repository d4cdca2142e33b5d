package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fractalxaos/radmond/internal/record"
)

// ErrNotConverted is returned when a record reaches the sink without an
// epoch timestamp, i.e. before conversion.
var ErrNotConverted = errors.New("sink: record not converted")

// artifactMode is the permission set for output artifacts; they are read
// by web documents and must be world-readable.
const artifactMode = 0o644

// dateLayout formats the human-readable date stamped into the structured
// artifact, in the agent's local time.
const dateLayout = "01/02/2006 15:04:05"

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

// Sink writes the two output artifacts downstream consumers read: the
// verbatim device text and a JSON rendering of the converted record.
// Both files are overwritten on every successful poll cycle and removed
// when the monitor goes offline or the agent shuts down.
type Sink struct {
	rawPath  string
	dataPath string
	logger   Logger
}

// New creates a Sink writing into the given directory.
//
// Parameters:
//   - dir: Output directory (must exist)
//   - rawFile: Filename for the raw artifact
//   - dataFile: Filename for the structured JSON artifact
func New(dir, rawFile, dataFile string) *Sink {
	return &Sink{
		rawPath:  filepath.Join(dir, rawFile),
		dataPath: filepath.Join(dir, dataFile),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the sink.
func (s *Sink) SetLogger(logger Logger) {
	s.logger = logger
}

// WriteRaw overwrites the raw artifact with the device text plus a
// trailing newline. Mirror servers poll this file.
func (s *Sink) WriteRaw(raw string) error {
	if err := os.WriteFile(s.rawPath, []byte(raw+"\n"), artifactMode); err != nil {
		return fmt.Errorf("sink: writing raw artifact: %w", err)
	}
	return nil
}

// WriteRecord overwrites the structured artifact with a JSON array of one
// object rendering the converted record.
func (s *Sink) WriteRecord(fields record.Fields) error {
	payload, err := marshalRecord(fields)
	if err != nil {
		return fmt.Errorf("sink: encoding record: %w", err)
	}

	if err := os.WriteFile(s.dataPath, payload, artifactMode); err != nil {
		return fmt.Errorf("sink: writing data artifact: %w", err)
	}
	return nil
}

// marshalRecord renders the converted record as a JSON array of one
// object. Every value is emitted as a string for compatibility with the
// HTML documents that consume the artifact, and the epoch field is
// replaced by a human-readable local date.
func marshalRecord(fields record.Fields) ([]byte, error) {
	epoch, ok := fields.Epoch()
	if !ok {
		return nil, ErrNotConverted
	}

	object := make(map[string]string, len(fields))
	for name, value := range fields {
		if name == record.FieldTimestamp {
			continue
		}
		object[name] = fmt.Sprint(value)
	}
	object["date"] = time.Unix(epoch, 0).Format(dateLayout)

	payload, err := json.Marshal([]map[string]string{object})
	if err != nil {
		return nil, err
	}

	return append(payload, '\n'), nil
}

// RemoveAll deletes both artifacts, telling downstream consumers the
// monitor has no current data. Already-absent files are not an error.
func (s *Sink) RemoveAll() {
	for _, path := range []string{s.dataPath, s.rawPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove artifact", "path", path, "error", err)
		}
	}
}

// RawPath returns the location of the raw artifact.
func (s *Sink) RawPath() string {
	return s.rawPath
}

// DataPath returns the location of the structured artifact.
func (s *Sink) DataPath() string {
	return s.dataPath
}
