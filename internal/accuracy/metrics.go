// Package accuracy computes forecast accuracy statistics over matched records.
package accuracy

import (
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// Analyze builds the result of one run. Overall and per-group MAPE are the
// mean absolute percentage offset of the records they cover; both are zero
// for an empty input. The records slice is retained, not copied.
func Analyze(records []domain.MatchedRecord, unmatchedForecast, unmatchedActual int) *domain.AnalysisResult {
	if records == nil {
		records = []domain.MatchedRecord{}
	}

	return &domain.AnalysisResult{
		Records:                  records,
		OverallMAPE:              MAPE(records),
		GroupMAPE:                GroupMAPE(records),
		TotalRecords:             len(records),
		UnmatchedForecastRecords: unmatchedForecast,
		UnmatchedActualRecords:   unmatchedActual,
	}
}

// MAPE returns the arithmetic mean of OffsetPercentAbs, summed in record order
func MAPE(records []domain.MatchedRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.OffsetPercentAbs
	}
	return sum / float64(len(records))
}

type groupAccumulator struct {
	sum   float64
	count int
}

// GroupMAPE partitions records by group in a single pass and returns each
// group's MAPE. Sums accumulate in record order within a group.
func GroupMAPE(records []domain.MatchedRecord) map[string]float64 {
	order := make([]string, 0)
	acc := make(map[string]*groupAccumulator)

	for _, r := range records {
		g, ok := acc[r.GroupID]
		if !ok {
			g = &groupAccumulator{}
			acc[r.GroupID] = g
			order = append(order, r.GroupID)
		}
		g.sum += r.OffsetPercentAbs
		g.count++
	}

	out := make(map[string]float64, len(order))
	for _, id := range order {
		g := acc[id]
		out[id] = g.sum / float64(g.count)
	}
	return out
}
