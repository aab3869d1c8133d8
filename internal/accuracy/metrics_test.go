package accuracy

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// record builds a matched record whose absolute percentage offset equals pct
func record(hour int, group string, pct float64) domain.MatchedRecord {
	key := domain.NewSeriesKey(t0.Add(time.Duration(hour)*time.Hour), group)
	return domain.NewMatchedRecord(key, 100+pct, 100)
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name        string
		records     []domain.MatchedRecord
		wantOverall float64
		wantGroups  map[string]float64
	}{
		{
			name:        "three records two groups",
			records:     []domain.MatchedRecord{record(0, "A", 10), record(1, "A", 20), record(0, "B", 30)},
			wantOverall: 20,
			wantGroups:  map[string]float64{"A": 15, "B": 30},
		},
		{
			name:        "single record",
			records:     []domain.MatchedRecord{record(0, "A", 10)},
			wantOverall: 10,
			wantGroups:  map[string]float64{"A": 10},
		},
		{
			name: "negative offsets count by magnitude",
			records: []domain.MatchedRecord{
				domain.NewMatchedRecord(domain.NewSeriesKey(t0, "A"), 90, 100),
				domain.NewMatchedRecord(domain.NewSeriesKey(t0, "B"), 110, 100),
			},
			wantOverall: 10,
			wantGroups:  map[string]float64{"A": 10, "B": 10},
		},
		{
			name: "zero actual contributes zero",
			records: []domain.MatchedRecord{
				domain.NewMatchedRecord(domain.NewSeriesKey(t0, "A"), 5, 0),
				record(1, "A", 20),
			},
			wantOverall: 10,
			wantGroups:  map[string]float64{"A": 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Analyze(tt.records, 2, 3)

			assert.InDelta(t, tt.wantOverall, result.OverallMAPE, 1e-9)
			require.Len(t, result.GroupMAPE, len(tt.wantGroups))
			for g, want := range tt.wantGroups {
				assert.InDelta(t, want, result.GroupMAPE[g], 1e-9, "group %s", g)
			}
			assert.Equal(t, len(tt.records), result.TotalRecords)
			assert.Equal(t, 2, result.UnmatchedForecastRecords)
			assert.Equal(t, 3, result.UnmatchedActualRecords)
			assert.Equal(t, tt.records, result.Records)
		})
	}
}

func TestAnalyze_Empty(t *testing.T) {
	for _, records := range [][]domain.MatchedRecord{nil, {}} {
		result := Analyze(records, 0, 0)

		require.NotNil(t, result)
		assert.Equal(t, 0.0, result.OverallMAPE)
		assert.Empty(t, result.GroupMAPE)
		assert.NotNil(t, result.GroupMAPE)
		assert.Equal(t, 0, result.TotalRecords)
		assert.NotNil(t, result.Records)
	}
}

func TestAnalyze_ExactValues(t *testing.T) {
	// 110 vs 100 is exactly 10% in IEEE 754 doubles
	key := domain.NewSeriesKey(t0, "A")
	result := Analyze([]domain.MatchedRecord{domain.NewMatchedRecord(key, 110, 100)}, 0, 0)

	assert.Equal(t, 10.0, result.OverallMAPE)
	assert.Equal(t, 10.0, result.GroupMAPE["A"])
}

func TestWriteSummary(t *testing.T) {
	result := Analyze([]domain.MatchedRecord{record(0, "B", 30), record(0, "A", 10), record(1, "A", 20)}, 1, 4)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, result))

	assert.Equal(t, `Overall MAPE: 20.00%
Total Records: 3
Unmatched Forecast Records: 1
Unmatched Actual Records: 4

Per-Group MAPE:
  A: 15.00%
  B: 30.00%
`, buf.String())
}

func TestWriteSummary_NoGroups(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, Analyze(nil, 0, 0)))

	assert.Equal(t, "Overall MAPE: 0.00%\nTotal Records: 0\nUnmatched Forecast Records: 0\nUnmatched Actual Records: 0\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteSummary_Errors(t *testing.T) {
	assert.Error(t, WriteSummary(&bytes.Buffer{}, nil))
	assert.EqualError(t, WriteSummary(failingWriter{}, Analyze(nil, 0, 0)), "disk full")
}
