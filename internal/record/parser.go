package record

import (
	"fmt"
	"strings"
)

// frameTrim is the width of the framing stripped from each end of the raw
// text (the device wraps its report in bracket/brace decoration).
const frameTrim = 2

// Parse converts the raw text returned by the radiation monitor into a
// measurement record.
//
// The device frames its report as comma-separated key=value tokens inside
// two-character delimiters, for example:
//
//	[{UTC=08:00:00 01/01/2020,Mode=SLOW,uSv/hr=0.12,CPM=20,CPS=0}]
//
// Tokens without an "=" are ignored; a token with several keeps the first
// two segments as key and value. The status marker is stamped after
// tokenization so downstream consumers can tell a live record from an
// absent one.
//
// Parsing is all-or-nothing: anything other than exactly six resulting
// entries is a structural corruption and returns ErrCorruptedRecord.
//
// Parameters:
//   - raw: The raw device response text
//
// Returns:
//   - Fields: The parsed record, every value a string
//   - error: ErrCorruptedRecord if the text does not frame a full record
func Parse(raw string) (Fields, error) {
	if len(raw) < 2*frameTrim {
		return nil, fmt.Errorf("%w: %d bytes is too short to carry a framed record", ErrCorruptedRecord, len(raw))
	}

	fields := make(Fields, fieldCount)
	for _, token := range strings.Split(raw[frameTrim:len(raw)-frameTrim], ",") {
		if !strings.Contains(token, "=") {
			continue
		}
		segments := strings.Split(token, "=")
		fields[segments[0]] = segments[1]
	}

	fields[FieldStatus] = StatusOnline

	if len(fields) != fieldCount {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrCorruptedRecord, len(fields), fieldCount)
	}

	return fields, nil
}
