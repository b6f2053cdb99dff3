package query

import (
	"github.com/pkg/errors"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses RFC 3339 timestamps as well as plain dates and date-times without a zone, which are taken as UTC.
// An empty string or "*" result in nil, meaning the time range is unbounded on that side.
func ParseTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "*" {
		return nil, nil
	}

	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			parsed = parsed.UTC()
			return &parsed, nil
		}
	}

	return nil, errors.Errorf("Invalid time '%s', expected RFC 3339 (e.g. 2023-05-10T12:00:00Z) or a date like 2023-05-10", value)
}
