// Package station tracks radiation monitor availability.
//
// The Tracker is a two-state machine (Online/Offline) driven by
// consecutive poll outcomes. A configurable run of failures marks the
// monitor offline and removes the output artifacts, so downstream pages
// show "no data" rather than a stale reading; one success brings it back.
//
// The tracker also carries the device reset flag raised when the
// time-series database rejects a stale timestamp, the signal that the
// monitor's clock has desynchronised and the device should be rebooted.
//
// # Usage
//
//	tracker := station.New(cfg.Monitor.MaxFailedPolls, sink)
//	tracker.SetLogger(logger.With("component", "station"))
//
//	// each poll cycle:
//	tracker.Update(pollSucceeded)
package station
