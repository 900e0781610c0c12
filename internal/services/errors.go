package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"artify/internal/event"
)

var (
	ErrExternal           = errors.New("external service error")
	ErrValidation         = errors.New("validation error")
	ErrConfiguration      = errors.New("configuration error")
	ErrNotFound           = errors.New("not found")
	ErrTimeout            = errors.New("timeout")
	ErrTransient          = errors.New("transient failure")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// SourceStatus maps the outcome of a single source scrape to the status stored
// in its run log. A source that failed after yielding records is partial.
func SourceStatus(err error, recovered int) event.SourceStatus {
	switch {
	case err == nil:
		return event.SourceSucceeded
	case recovered > 0 && !errors.Is(err, context.Canceled):
		return event.SourcePartial
	default:
		return event.SourceFailed
	}
}

// ErrorHint returns a short operator hint for a wrapped error.
func ErrorHint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "source exceeded its timeout; raise ingest.source_timeout_seconds or check the site"
	case errors.Is(err, ErrConfiguration):
		return "check the source entry in the config file"
	case errors.Is(err, ErrCatalogUnavailable):
		return "check catalog.dsn and that the database is reachable"
	case errors.Is(err, ErrValidation):
		return "source returned records that could not be parsed"
	default:
		return "check network access to the source"
	}
}

// ErrorKind names the marker carried by err for log filtering.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrCatalogUnavailable):
		return "catalog_unavailable"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExternal):
		return "external"
	default:
		return "transient"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
