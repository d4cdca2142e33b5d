package monitor

import "errors"

// Sentinel errors returned by the device client.
var (
	// ErrDeviceUnavailable indicates the monitoring device (or the mirror
	// source) could not be reached or answered with a non-2xx status.
	ErrDeviceUnavailable = errors.New("monitor: device unavailable")
)
