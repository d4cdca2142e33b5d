// Package mqtt publishes the agent's telemetry to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Measurement publishing with QoS guarantees
//   - Retained availability status on the status topic
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
// All topics share a configurable prefix (default "radmond"):
//
//	radmond/measurement   one JSON message per converted record
//	radmond/status        retained "online"/"offline" availability
//
// The status topic doubles as the LWT target. If the agent dies without
// a clean shutdown, the broker publishes a retained "offline" there, so
// subscribers stop trusting the last measurement either way.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	pub := mqtt.NewPublisher(client)
//	client.SetOnConnect(func() {
//	    pub.PublishStatus(tracker.Online())
//	})
//	pub.PublishMeasurement(rec)
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
package mqtt
