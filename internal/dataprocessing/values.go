package dataprocessing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Layouts without a zone parse as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
}

// decimalPattern admits plain decimal notation only, so base prefixes,
// underscores and hex floats never reach strconv
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseError describes a cell that could not be converted
type ParseError struct {
	Field string
	Raw   string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse %s: '%s'", e.Field, e.Raw)
}

// ParseTimestamp parses a timestamp cell independently of the host locale.
// Month-first is assumed for slash-separated dates. The result is in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, &ParseError{Field: "timestamp", Raw: s}
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, &ParseError{Field: "timestamp", Raw: s}
}

// ParseValue parses a numeric cell with '.' as the decimal separator.
// Thousands separators, NaN, infinities and non-decimal notations are rejected.
func ParseValue(s string) (float64, error) {
	raw := strings.TrimSpace(s)
	if !decimalPattern.MatchString(raw) {
		return 0, &ParseError{Field: "value", Raw: s}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Field: "value", Raw: s}
	}
	return v, nil
}
