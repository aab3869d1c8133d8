package dataprocessing

import (
	"strings"

	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// Header synonyms, compared case-insensitively after normalization
var (
	groupSynonyms     = []string{"group_id", "groupid", "group", "id"}
	timestampSynonyms = []string{"timestamp", "datetime", "date", "time"}
	valueSynonyms     = []string{"value", "units", "amount", "quantity"}
)

// normalizeHeader strips a BOM, whitespace and stray quotes from a header token
func normalizeHeader(token string) string {
	token = strings.TrimPrefix(token, "\ufeff")
	token = strings.TrimSpace(token)
	token = strings.Trim(token, `"`)
	return strings.TrimSpace(token)
}

func isSynonym(token string, synonyms []string) bool {
	lower := strings.ToLower(normalizeHeader(token))
	for _, s := range synonyms {
		if lower == s {
			return true
		}
	}
	return false
}

// DetectLayout classifies a file from its header row alone. Any group
// identifier synonym makes it long format; everything else is wide.
func DetectLayout(header []string) domain.Layout {
	for _, token := range header {
		if isSynonym(token, groupSynonyms) {
			return domain.LayoutLong
		}
	}
	return domain.LayoutWide
}

// longColumns holds the indices of the long format columns, -1 when absent
type longColumns struct {
	timestamp int
	group     int
	value     int
}

// findLongColumns locates each long format column. Synonyms are tried in
// order, so an earlier synonym wins over an earlier header position.
func findLongColumns(header []string, valueNames []string) longColumns {
	return longColumns{
		timestamp: indexOfSynonym(header, timestampSynonyms),
		group:     indexOfSynonym(header, groupSynonyms),
		value:     indexOfSynonym(header, valueNames),
	}
}

func indexOfSynonym(header []string, synonyms []string) int {
	for _, s := range synonyms {
		for i, token := range header {
			if strings.ToLower(normalizeHeader(token)) == s {
				return i
			}
		}
	}
	return -1
}

// missing names the first absent column, or "" when all are present
func (c longColumns) missing() string {
	switch {
	case c.timestamp == -1:
		return "timestamp"
	case c.group == -1:
		return "group"
	case c.value == -1:
		return "value"
	}
	return ""
}

// cell returns the trimmed cell at index i, or "" when the row is short
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// isBlankRow reports whether every cell of row is empty
func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
