package domain

import (
	"math"
	"sort"
	"time"
)

// MatchedRecord pairs the forecast and actual values recorded for one key.
// Offsets are derived once by NewMatchedRecord.
type MatchedRecord struct {
	Timestamp        time.Time `json:"timestamp"`
	GroupID          string    `json:"group_id"`
	Forecast         float64   `json:"forecast"`
	Actual           float64   `json:"actual"`
	OffsetUnits      float64   `json:"offset_units"`
	OffsetPercent    float64   `json:"offset_percent"`
	OffsetPercentAbs float64   `json:"offset_percent_abs"`
}

// NewMatchedRecord computes the offset fields for a forecast/actual pair.
// The percentage offset is zero when actual is zero.
func NewMatchedRecord(key SeriesKey, forecast, actual float64) MatchedRecord {
	rec := MatchedRecord{
		Timestamp:   key.Timestamp,
		GroupID:     key.GroupID,
		Forecast:    forecast,
		Actual:      actual,
		OffsetUnits: forecast - actual,
	}
	if actual != 0 {
		rec.OffsetPercent = rec.OffsetUnits / actual * 100
		// 0 over a negative actual yields -0
		if rec.OffsetPercent == 0 {
			rec.OffsetPercent = 0
		}
		rec.OffsetPercentAbs = math.Abs(rec.OffsetPercent)
	}
	return rec
}

// Key returns the series key of the record
func (r MatchedRecord) Key() SeriesKey {
	return NewSeriesKey(r.Timestamp, r.GroupID)
}

// MatchResult is the output of joining a forecast and an actual dataset
type MatchResult struct {
	Records           []MatchedRecord `json:"records"`
	UnmatchedForecast int             `json:"unmatched_forecast"`
	UnmatchedActual   int             `json:"unmatched_actual"`
}

// AnalysisResult aggregates the matched records of one analysis run
type AnalysisResult struct {
	Records                  []MatchedRecord    `json:"records"`
	OverallMAPE              float64            `json:"overall_mape"`
	GroupMAPE                map[string]float64 `json:"group_mape"`
	TotalRecords             int                `json:"total_records"`
	UnmatchedForecastRecords int                `json:"unmatched_forecast_records"`
	UnmatchedActualRecords   int                `json:"unmatched_actual_records"`
}

// Groups returns the group identifiers of GroupMAPE in ascending order
func (r *AnalysisResult) Groups() []string {
	if r == nil {
		return nil
	}
	groups := make([]string, 0, len(r.GroupMAPE))
	for g := range r.GroupMAPE {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// ExportFormat selects the file format of an export
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// Extension returns the file extension for the format, including the dot
func (f ExportFormat) Extension() string {
	if f == ExportFormatXLSX {
		return ".xlsx"
	}
	return ".csv"
}
