// Package sink maintains the output artifacts consumed by web documents
// and mirror servers.
//
// Two files live in the output directory: the raw device text (polled by
// mirror servers) and a JSON array of one object holding the converted
// measurement (read by HTML pages). Both are overwritten on every
// successful poll and removed when the monitor goes offline or the agent
// stops, so their presence alone signals live data.
package sink
