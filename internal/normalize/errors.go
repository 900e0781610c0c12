package normalize

import (
	"errors"
	"fmt"

	"artify/internal/services"
)

// Reject reasons recorded on source run logs.
const (
	ReasonMalformedDate    = "malformed_date"
	ReasonIncompleteRecord = "incomplete_record"
)

// MalformedDateError reports a date string that matched no known format.
type MalformedDateError struct {
	Source string
	URL    string
	Text   string
}

func (e *MalformedDateError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("%s: missing date for %s", e.Source, e.URL)
	}
	return fmt.Sprintf("%s: unparseable date %q for %s", e.Source, e.Text, e.URL)
}

func (e *MalformedDateError) Unwrap() error { return services.ErrValidation }

// IncompleteRecordError reports a record missing a required field after trimming.
type IncompleteRecordError struct {
	Source string
	URL    string
	Field  string
}

func (e *IncompleteRecordError) Error() string {
	return fmt.Sprintf("%s: empty %s for %s", e.Source, e.Field, e.URL)
}

func (e *IncompleteRecordError) Unwrap() error { return services.ErrValidation }

// Reason maps a normalization error to its run log reject reason.
func Reason(err error) string {
	var malformed *MalformedDateError
	var incomplete *IncompleteRecordError
	switch {
	case errors.As(err, &malformed):
		return ReasonMalformedDate
	case errors.As(err, &incomplete):
		return ReasonIncompleteRecord
	case err == nil:
		return ""
	default:
		return "invalid_record"
	}
}
