// Package record parses and normalises radiation monitor measurements.
//
// The monitor reports one sample per request as comma-separated key=value
// tokens wrapped in two-character framing:
//
//	[{UTC=08:00:00 01/01/2020,Mode=SLOW,uSv/hr=0.12,CPM=20,CPS=0}]
//
// Parse tokenizes this into a Fields map (all values strings) and stamps
// the status marker; Convert then normalises the map in place: the device
// timestamp becomes an epoch second, the mode is lower-cased, the dose
// rate is reformatted to two decimals under its conventional key, and the
// count fields become integers.
//
// # Validation
//
// A well-formed record has exactly six entries after parsing, the five
// device fields plus the status marker. Any other count is treated as a
// corrupted transmission and rejected whole; no partial records escape
// this package.
//
// # Usage
//
//	fields, err := record.Parse(raw)
//	if err != nil {
//	    return err
//	}
//	if err := converter.Convert(fields); err != nil {
//	    return err
//	}
//	epoch, _ := fields.Epoch()
//
// # Error Handling
//
// Parse failures wrap ErrCorruptedRecord. Convert failures return a
// *ConvertError naming the offending field. Both count as a failed poll
// for availability tracking; neither is ever fatal.
package record
