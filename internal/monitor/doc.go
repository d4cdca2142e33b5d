// Package monitor talks to the radiation monitoring device over HTTP.
//
// The device exposes two endpoints: /rdata returns the current radiation
// record as plain text, and /reset reboots the device. A client may also
// run in mirror mode, reading the raw record artifact published by a
// primary server instead of contacting a device directly.
package monitor
