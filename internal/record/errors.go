package record

import (
	"errors"
	"fmt"
)

// Domain errors for the record package.
var (
	// ErrCorruptedRecord is returned when the raw device text does not
	// tokenize into the expected field set.
	ErrCorruptedRecord = errors.New("record: corrupted record")

	// ErrMissingField is returned when a conversion step cannot find the
	// field it operates on.
	ErrMissingField = errors.New("record: missing field")
)

// ConvertError reports which field failed normalisation and why.
//
// Use errors.As to recover the field name, or errors.Is against the
// wrapped cause:
//
//	var convErr *record.ConvertError
//	if errors.As(err, &convErr) {
//	    log.Warn("conversion failed", "field", convErr.Field)
//	}
type ConvertError struct {
	// Field is the record field that failed to convert.
	Field string

	// Err is the underlying cause.
	Err error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("record: converting field %q: %v", e.Field, e.Err)
}

func (e *ConvertError) Unwrap() error {
	return e.Err
}
