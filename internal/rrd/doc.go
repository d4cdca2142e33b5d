// Package rrd drives rrdtool: appending radiation measurements to a
// round-robin database file and rendering the chart PNGs displayed by
// the station's web page.
//
// rrdtool runs as a subprocess per operation. Update rejections caused
// by a stale timestamp are detected from the tool's output and surfaced
// separately, since a clock that has stopped advancing means the device
// needs a reboot.
package rrd
