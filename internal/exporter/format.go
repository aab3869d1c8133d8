package exporter

import (
	"strconv"
	"time"

	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

var header = [...]string{"Timestamp", "GroupId", "Forecast", "Actual", "OffsetUnits", "OffsetPercent", "OffsetPercentAbs"}

// Header returns the first line of every export. Each call returns a new slice.
func Header() []string {
	h := header
	return h[:]
}

// formatFloat renders the shortest decimal that parses back to f, without exponent
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatTimestamp renders a timestamp as yyyy-MM-dd HH:mm:ss
func formatTimestamp(ts time.Time) string {
	return ts.Format(domain.TimestampLayout)
}

// recordRow converts a matched record into CSV cells in header order
func recordRow(r domain.MatchedRecord) []string {
	return []string{
		formatTimestamp(r.Timestamp),
		r.GroupID,
		formatFloat(r.Forecast),
		formatFloat(r.Actual),
		formatFloat(r.OffsetUnits),
		formatFloat(r.OffsetPercent),
		formatFloat(r.OffsetPercentAbs),
	}
}

// DefaultFileName returns the export name used when none is given,
// e.g. AccuracyAnalysis_20240131_154500.csv
func DefaultFileName(now time.Time, format domain.ExportFormat) string {
	return "AccuracyAnalysis_" + now.Format("20060102_150405") + format.Extension()
}
