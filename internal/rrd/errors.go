package rrd

import "errors"

// Sentinel errors returned by database and chart operations.
var (
	// ErrDatabaseMissing indicates the round-robin database file does not
	// exist on disk. The agent refuses to start without it.
	ErrDatabaseMissing = errors.New("rrd: database file does not exist")

	// ErrCreateFailed indicates rrdtool could not create the database.
	ErrCreateFailed = errors.New("rrd: create failed")

	// ErrUpdateFailed indicates a measurement could not be appended.
	ErrUpdateFailed = errors.New("rrd: update failed")

	// ErrStaleTimestamp is the variant of an update failure where the
	// sample's timestamp is not newer than the last stored sample. Repeated
	// stale timestamps mean the device clock has stopped advancing.
	ErrStaleTimestamp = errors.New("rrd: stale update timestamp")

	// ErrGraphFailed indicates a chart could not be rendered.
	ErrGraphFailed = errors.New("rrd: graph failed")
)
