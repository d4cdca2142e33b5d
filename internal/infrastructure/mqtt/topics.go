package mqtt

import "strings"

// DefaultTopicPrefix is used when the configuration leaves the prefix
// empty.
const DefaultTopicPrefix = "radmond"

// Topics builds the agent's MQTT topic names from the configured prefix.
// Using these helpers keeps topic naming consistent between the
// publisher, the Last Will configuration, and downstream consumers.
type Topics struct {
	prefix string
}

// NewTopics derives the topic set from a prefix. Trailing slashes are
// trimmed; an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Measurement returns the topic carrying each converted measurement
// record.
//
// Example: radmond/measurement
func (t Topics) Measurement() string {
	return t.prefix + "/measurement"
}

// Status returns the retained availability topic. This is also the Last
// Will target, so subscribers see "offline" whether the monitor fails or
// the agent itself dies.
//
// Example: radmond/status
func (t Topics) Status() string {
	return t.prefix + "/status"
}
