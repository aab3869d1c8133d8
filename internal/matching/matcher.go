// Package matching joins a forecast and an actual dataset on their series keys.
package matching

import (
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// Match returns one record for every key present in both datasets, with its
// offsets computed, plus the number of keys found on one side only.
// Neither input is modified. Record order follows map iteration and carries
// no meaning.
func Match(forecast, actual domain.Dataset) domain.MatchResult {
	records := make([]domain.MatchedRecord, 0, min(len(forecast), len(actual)))

	for key, f := range forecast {
		a, ok := actual[key]
		if !ok {
			continue
		}
		records = append(records, domain.NewMatchedRecord(key, f, a))
	}

	// Keys are unique per dataset, so each matched key accounts for exactly
	// one entry on either side
	return domain.MatchResult{
		Records:           records,
		UnmatchedForecast: len(forecast) - len(records),
		UnmatchedActual:   len(actual) - len(records),
	}
}
