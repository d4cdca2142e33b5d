// Package influxdb mirrors radiation measurements into InfluxDB 2.x.
//
// It wraps the official influxdb-client-go v2 library. rrdtool remains
// the agent's primary time-series store; this mirror is optional and
// exists so Grafana-style dashboards can query the same data without
// touching the rrd file.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "home",
//	    Bucket:  "radiation",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteMeasurement(rec)
//
// # Error Handling
//
// Writes are non-blocking and batched; transport errors surface via the
// SetOnError callback. WriteMeasurement only returns an error for records
// that cannot form a point. Connection and health check errors are
// returned directly.
package influxdb
