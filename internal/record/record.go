package record

// Field names carried by a measurement record.
//
// The device reports five fields per sample; the parser adds the status
// marker. FieldDoseRateRaw only exists before conversion, FieldDoseRate
// only after.
const (
	FieldTimestamp   = "UTC"
	FieldMode        = "Mode"
	FieldDoseRateRaw = "uSv/hr"
	FieldDoseRate    = "uSvPerHr"
	FieldCPM         = "CPM"
	FieldCPS         = "CPS"
	FieldStatus      = "status"
)

// StatusOnline is the status marker stamped on every parsed record.
const StatusOnline = "online"

// fieldCount is the exact number of entries a well-formed record carries
// after parsing: five device fields plus the status marker. Any other
// count means the transmission was corrupted.
const fieldCount = 6

// TimestampLayout is the device clock format: 24-hour time, a space,
// then month/day/year.
const TimestampLayout = "15:04:05 01/02/2006"

// Fields is one measurement record as field-name/value pairs.
//
// Parse fills every value as a string. Convert then replaces values in
// place with typed ones: FieldTimestamp becomes an int64 epoch second,
// FieldCPM and FieldCPS become int, and the formatted dose rate moves
// from FieldDoseRateRaw to FieldDoseRate. A record belongs to a single
// poll cycle and is never reused.
type Fields map[string]any

// Epoch returns the measurement time as epoch seconds.
// Only valid after Convert.
func (f Fields) Epoch() (int64, bool) {
	v, ok := f[FieldTimestamp].(int64)
	return v, ok
}

// Mode returns the device operating mode.
func (f Fields) Mode() (string, bool) {
	v, ok := f[FieldMode].(string)
	return v, ok
}

// DoseRate returns the dose rate in uSv/hr as a 2-decimal string.
// Only valid after Convert.
func (f Fields) DoseRate() (string, bool) {
	v, ok := f[FieldDoseRate].(string)
	return v, ok
}

// CPM returns the counts-per-minute reading. Only valid after Convert.
func (f Fields) CPM() (int, bool) {
	v, ok := f[FieldCPM].(int)
	return v, ok
}

// CPS returns the counts-per-second reading. Only valid after Convert.
func (f Fields) CPS() (int, bool) {
	v, ok := f[FieldCPS].(int)
	return v, ok
}
