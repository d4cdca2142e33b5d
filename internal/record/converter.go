package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Converter normalises a parsed record in place.
//
// Conversion replaces the device timestamp string with an epoch second,
// lower-cases the mode, reformats the dose rate to two decimals under its
// conventional key, and coerces both count fields to integers. Each step
// can fail independently; the first failure aborts the whole conversion
// and the record must be discarded.
//
// Convert is deliberately not idempotent: running it on already-converted
// fields fails, which guards against a record being processed twice in
// one cycle.
type Converter struct {
	// UseLocalClock stamps records with the agent's clock instead of the
	// device-reported time. The device string must still parse either way;
	// this only selects which reading is stored. Use it when the monitor
	// cannot reach an NTP server and its clock drifts.
	UseLocalClock bool

	now func() time.Time
}

// NewConverter creates a Converter.
//
// Parameters:
//   - useLocalClock: true to stamp records with the agent's clock
func NewConverter(useLocalClock bool) *Converter {
	return &Converter{
		UseLocalClock: useLocalClock,
		now:           time.Now,
	}
}

// Convert normalises the record in place.
//
// Returns:
//   - error: A *ConvertError naming the offending field, or nil
func (c *Converter) Convert(fields Fields) error {
	if err := c.convertTimestamp(fields); err != nil {
		return err
	}
	if err := convertMode(fields); err != nil {
		return err
	}
	if err := convertDoseRate(fields); err != nil {
		return err
	}
	return convertCounts(fields)
}

// convertTimestamp parses the device's UTC wall-clock reading and stores
// the corresponding epoch second. The reading is interpreted as UTC, not
// shifted through the agent's timezone.
func (c *Converter) convertTimestamp(fields Fields) error {
	raw, ok := fields[FieldTimestamp].(string)
	if !ok {
		return &ConvertError{
			Field: FieldTimestamp,
			Err:   fmt.Errorf("expected a device time string, got %T", fields[FieldTimestamp]),
		}
	}

	ts, err := time.Parse(TimestampLayout, raw)
	if err != nil {
		return &ConvertError{Field: FieldTimestamp, Err: err}
	}

	epoch := ts.Unix()
	if c.UseLocalClock {
		epoch = c.now().Unix()
	}
	fields[FieldTimestamp] = epoch

	return nil
}

func convertMode(fields Fields) error {
	mode, ok := fields[FieldMode].(string)
	if !ok {
		return &ConvertError{
			Field: FieldMode,
			Err:   fmt.Errorf("expected a mode string, got %T", fields[FieldMode]),
		}
	}

	fields[FieldMode] = strings.ToLower(mode)

	return nil
}

// convertDoseRate moves the dose rate from the slash-bearing device key to
// the conventional one, formatted to two decimals.
func convertDoseRate(fields Fields) error {
	value, present := fields[FieldDoseRateRaw]
	if !present {
		return &ConvertError{Field: FieldDoseRateRaw, Err: ErrMissingField}
	}

	raw, ok := value.(string)
	if !ok {
		return &ConvertError{
			Field: FieldDoseRateRaw,
			Err:   fmt.Errorf("expected a dose rate string, got %T", value),
		}
	}

	dose, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return &ConvertError{Field: FieldDoseRateRaw, Err: err}
	}

	fields[FieldDoseRate] = strconv.FormatFloat(dose, 'f', 2, 64)
	delete(fields, FieldDoseRateRaw)

	return nil
}

func convertCounts(fields Fields) error {
	for _, name := range []string{FieldCPM, FieldCPS} {
		raw, ok := fields[name].(string)
		if !ok {
			return &ConvertError{
				Field: name,
				Err:   fmt.Errorf("expected a count string, got %T", fields[name]),
			}
		}

		count, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return &ConvertError{Field: name, Err: err}
		}

		fields[name] = count
	}

	return nil
}
