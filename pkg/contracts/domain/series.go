package domain

import (
	"time"
)

// TimestampLayout is the canonical rendering of a series timestamp
const TimestampLayout = "2006-01-02 15:04:05"

// SeriesKey identifies one observation by timestamp and group.
// Construct it with NewSeriesKey so that equal instants compare equal.
type SeriesKey struct {
	Timestamp time.Time `json:"timestamp"`
	GroupID   string    `json:"group_id"`
}

// NewSeriesKey builds a key with the timestamp normalized to UTC
func NewSeriesKey(ts time.Time, groupID string) SeriesKey {
	return SeriesKey{Timestamp: ts.UTC(), GroupID: groupID}
}

// String renders the key the way skip reasons and logs show it
func (k SeriesKey) String() string {
	return k.Timestamp.Format(TimestampLayout) + ", " + k.GroupID
}

// Dataset maps each key of one input file to its value
type Dataset map[SeriesKey]float64

// Groups returns the number of distinct groups in the dataset
func (d Dataset) Groups() int {
	seen := make(map[string]struct{})
	for k := range d {
		seen[k.GroupID] = struct{}{}
	}
	return len(seen)
}

// Layout is the tabular shape of an input file
type Layout string

const (
	// LayoutLong has one row per (timestamp, group, value)
	LayoutLong Layout = "long"
	// LayoutWide has one row per timestamp and one column per group
	LayoutWide Layout = "wide"
)

// SkipReason records why a row or cell was dropped while parsing
type SkipReason struct {
	Row     int    `json:"row"`
	Group   string `json:"group,omitempty"`
	Message string `json:"message"`
}

// String returns the human-readable reason
func (s SkipReason) String() string {
	return s.Message
}

// ParseReport describes the outcome of parsing one input file
type ParseReport struct {
	File          string       `json:"file"`
	Layout        Layout       `json:"layout"`
	RowsRead      int          `json:"rows_read"`
	RecordsParsed int          `json:"records_parsed"`
	Skipped       []SkipReason `json:"skipped,omitempty"`
}

// SkipMessages returns up to limit skip messages in the order they were recorded.
// A limit of zero or less returns all of them.
func (r *ParseReport) SkipMessages(limit int) []string {
	if r == nil {
		return nil
	}
	n := len(r.Skipped)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]string, 0, n)
	for _, s := range r.Skipped[:n] {
		out = append(out, s.Message)
	}
	return out
}
