// Package agent runs the radiation monitor polling loop.
//
// The agent is the composition point of the service: it owns the
// schedule and invokes the other components in dependency order, but
// holds no connection state of its own. Component lifecycles (MQTT,
// InfluxDB, journal) belong to the caller.
//
// # Scheduling
//
// Three cadences are derived from one timing reference captured at the
// top of each iteration:
//
//   - Poll: fetch raw text from the device, parse and convert it, then
//     distribute the record to the sink and the optional integrations.
//   - Database: append the converted record via rrdtool, evaluated only
//     within a successful poll cycle.
//   - Charts: dispatch the render worker, skipped while a previous
//     render is still in flight.
//
// After the cadence checks the loop sleeps out the remainder of the
// poll interval, clamped to zero when processing overran it. The sleep
// is interruptible; context cancellation removes both output artifacts
// and waits for the chart worker before Run returns.
//
// # Availability
//
// Every poll outcome feeds station.Tracker. Fetch, parse and conversion
// failures count toward the offline transition; artifact, database,
// journal, MQTT and InfluxDB failures are logged without affecting
// availability.
//
// # Usage
//
//	agent, err := agent.New(agent.Options{
//		Config:   cfg,
//		Monitor:  monitorClient,
//		Tracker:  tracker,
//		Sink:     outputSink,
//		Database: database,
//		Charts:   charts,
//		Logger:   logger,
//	})
//	if err != nil {
//		return err
//	}
//	return agent.Run(ctx)
package agent
