package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func k(hour int, group string) domain.SeriesKey {
	return domain.NewSeriesKey(t0.Add(time.Duration(hour)*time.Hour), group)
}

func keysOf(records []domain.MatchedRecord) map[domain.SeriesKey]bool {
	out := make(map[domain.SeriesKey]bool, len(records))
	for _, r := range records {
		out[r.Key()] = true
	}
	return out
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name              string
		forecast          domain.Dataset
		actual            domain.Dataset
		wantKeys          []domain.SeriesKey
		unmatchedForecast int
		unmatchedActual   int
	}{
		{
			name:              "partial overlap",
			forecast:          domain.Dataset{k(0, "A"): 110, k(1, "A"): 5, k(2, "A"): 1},
			actual:            domain.Dataset{k(0, "A"): 100, k(1, "A"): 0, k(3, "A"): 1, k(0, "B"): 1},
			wantKeys:          []domain.SeriesKey{k(0, "A"), k(1, "A")},
			unmatchedForecast: 1,
			unmatchedActual:   2,
		},
		{
			name:              "identical keys",
			forecast:          domain.Dataset{k(0, "A"): 1, k(0, "B"): 2},
			actual:            domain.Dataset{k(0, "A"): 1, k(0, "B"): 2},
			wantKeys:          []domain.SeriesKey{k(0, "A"), k(0, "B")},
			unmatchedForecast: 0,
			unmatchedActual:   0,
		},
		{
			name:              "disjoint",
			forecast:          domain.Dataset{k(0, "A"): 1},
			actual:            domain.Dataset{k(0, "a"): 1},
			unmatchedForecast: 1,
			unmatchedActual:   1,
		},
		{
			name:     "both empty",
			forecast: domain.Dataset{},
			actual:   domain.Dataset{},
		},
		{
			name:              "nil actual",
			forecast:          domain.Dataset{k(0, "A"): 1},
			actual:            nil,
			unmatchedForecast: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Match(tt.forecast, tt.actual)

			want := make(map[domain.SeriesKey]bool, len(tt.wantKeys))
			for _, key := range tt.wantKeys {
				want[key] = true
			}
			assert.Equal(t, want, keysOf(result.Records))
			assert.Equal(t, tt.unmatchedForecast, result.UnmatchedForecast)
			assert.Equal(t, tt.unmatchedActual, result.UnmatchedActual)

			// counts reconcile with the source sizes on each side
			assert.Equal(t, len(tt.forecast), len(result.Records)+result.UnmatchedForecast)
			assert.Equal(t, len(tt.actual), len(result.Records)+result.UnmatchedActual)
		})
	}
}

func TestMatch_ComputesOffsets(t *testing.T) {
	result := Match(
		domain.Dataset{k(0, "A"): 110, k(1, "A"): 5},
		domain.Dataset{k(0, "A"): 100, k(1, "A"): 0},
	)
	require.Len(t, result.Records, 2)

	byKey := make(map[domain.SeriesKey]domain.MatchedRecord)
	for _, r := range result.Records {
		byKey[r.Key()] = r
	}

	r := byKey[k(0, "A")]
	assert.Equal(t, 110.0, r.Forecast)
	assert.Equal(t, 100.0, r.Actual)
	assert.Equal(t, 10.0, r.OffsetUnits)
	assert.InDelta(t, 10.0, r.OffsetPercent, 1e-12)
	assert.InDelta(t, 10.0, r.OffsetPercentAbs, 1e-12)

	zero := byKey[k(1, "A")]
	assert.Equal(t, 5.0, zero.OffsetUnits)
	assert.Equal(t, 0.0, zero.OffsetPercent)
	assert.Equal(t, 0.0, zero.OffsetPercentAbs)
}

func TestMatch_DoesNotMutateInputs(t *testing.T) {
	forecast := domain.Dataset{k(0, "A"): 1, k(1, "A"): 2}
	actual := domain.Dataset{k(0, "A"): 3}

	Match(forecast, actual)

	assert.Equal(t, domain.Dataset{k(0, "A"): 1, k(1, "A"): 2}, forecast)
	assert.Equal(t, domain.Dataset{k(0, "A"): 3}, actual)
}

func TestMatch_KeysEqualAcrossZones(t *testing.T) {
	plus2 := time.FixedZone("plus2", 2*60*60)
	forecast := domain.Dataset{domain.NewSeriesKey(time.Date(2024, 1, 1, 2, 0, 0, 0, plus2), "A"): 1}
	actual := domain.Dataset{domain.NewSeriesKey(t0, "A"): 1}

	result := Match(forecast, actual)
	assert.Len(t, result.Records, 1)
}
