package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Anest2009/Enerlytics/internal/errors"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// Report describes the outcome of parsing one input file
type Report = domain.ParseReport

const (
	// warnSampleSize bounds the skip reasons logged after a partial success
	warnSampleSize = 5
	// cancelCheckInterval is how many rows are parsed between context checks
	cancelCheckInterval = 1000
)

// Parser turns one tabular input file into a keyed dataset
type Parser struct {
	logger     *slog.Logger
	sampleSize int
	valueNames []string
}

// NewParser creates a parser. A nil logger falls back to slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger:     logger.With(slog.String("component", "parser")),
		sampleSize: apperrors.MaxReportedReasons,
		valueNames: valueSynonyms,
	}
}

// WithValueColumn makes long format files take their value from the named
// column instead of the value synonyms, e.g. "Forecast" to read an export back
func (p *Parser) WithValueColumn(name string) *Parser {
	if name = strings.ToLower(normalizeHeader(name)); name != "" {
		p.valueNames = []string{name}
	}
	return p
}

// WithSampleSize sets how many skip reasons a NoValidRecords error carries.
// Values outside 1..MaxReportedReasons are ignored.
func (p *Parser) WithSampleSize(n int) *Parser {
	if n > 0 && n <= apperrors.MaxReportedReasons {
		p.sampleSize = n
	}
	return p
}

// ParseFile parses the file at path with a default parser
func ParseFile(path string) (domain.Dataset, *Report, error) {
	return NewParser(nil).ParseFile(context.Background(), path)
}

// Parse parses an in-memory input with a default parser. name is used for
// diagnostics and to recognize workbooks by their .xlsx extension.
func Parse(r io.Reader, name string) (domain.Dataset, *Report, error) {
	return NewParser(nil).Parse(context.Background(), r, name)
}

// ParseFile opens and parses the file at path. The report is returned
// alongside FileEmpty and NoValidRecords errors for diagnostics.
func (p *Parser) ParseFile(ctx context.Context, path string) (domain.Dataset, *Report, error) {
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewIOError(name, err)
	}
	defer f.Close()

	return p.Parse(ctx, f, name)
}

// Parse parses an input stream
func (p *Parser) Parse(ctx context.Context, r io.Reader, name string) (domain.Dataset, *Report, error) {
	rows, err := readRows(r, name)
	if err != nil {
		return nil, nil, apperrors.NewIOError(name, err)
	}
	return p.parseRows(ctx, name, rows)
}

func (p *Parser) parseRows(ctx context.Context, name string, rows [][]string) (domain.Dataset, *Report, error) {
	// The header is the first non-blank row; blank rows never count as data
	var header []string
	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		data = append(data, row)
	}

	if header == nil {
		return nil, &Report{File: name}, apperrors.NewFileEmptyError(name)
	}

	report := &Report{
		File:     name,
		Layout:   DetectLayout(header),
		RowsRead: len(data),
	}

	if len(data) == 0 {
		return nil, report, apperrors.NewFileEmptyError(name)
	}

	var (
		ds  domain.Dataset
		err error
	)
	switch report.Layout {
	case domain.LayoutLong:
		ds, err = p.parseLong(ctx, header, data, report)
	default:
		ds, err = p.parseWide(ctx, header, data, report)
	}
	if err != nil {
		return nil, report, err
	}

	report.RecordsParsed = len(ds)

	if len(ds) == 0 {
		return nil, report, apperrors.NewNoValidRecordsError(name, report.RowsRead, report.SkipMessages(p.sampleSize))
	}

	if len(report.Skipped) > 0 {
		p.logger.WarnContext(ctx, "rows skipped while parsing",
			slog.String("file", name),
			slog.Int("skipped", len(report.Skipped)),
			slog.Int("parsed", report.RecordsParsed),
			slog.Any("first_reasons", report.SkipMessages(warnSampleSize)))
	}

	p.logger.InfoContext(ctx, "parsed input file",
		slog.String("file", name),
		slog.String("layout", string(report.Layout)),
		slog.Int("rows", report.RowsRead),
		slog.Int("records", report.RecordsParsed),
		slog.Int("groups", ds.Groups()))

	return ds, report, nil
}

// parseLong reads one (timestamp, group, value) triple per row
func (p *Parser) parseLong(ctx context.Context, header []string, data [][]string, report *Report) (domain.Dataset, error) {
	cols := findLongColumns(header, p.valueNames)
	missing := cols.missing()
	ds := make(domain.Dataset, len(data))

	for i, row := range data {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := i + 1

		if missing != "" {
			skip(report, line, "", fmt.Sprintf("Line %d: missing %s column", line, missing))
			continue
		}

		rawTS := cell(row, cols.timestamp)
		ts, err := ParseTimestamp(rawTS)
		if err != nil {
			skip(report, line, "", fmt.Sprintf("Line %d: Unable to parse timestamp: '%s'", line, rawTS))
			continue
		}

		// A blank group cell is a valid group of its own
		group := cell(row, cols.group)

		rawValue := cell(row, cols.value)
		value, err := ParseValue(rawValue)
		if err != nil {
			skip(report, line, group, fmt.Sprintf("Line %d: Unable to parse value: '%s'", line, rawValue))
			continue
		}

		key := domain.NewSeriesKey(ts, group)
		if _, dup := ds[key]; dup {
			skip(report, line, group, "Duplicate key: "+key.String())
			p.logger.DebugContext(ctx, "duplicate key ignored", slog.String("key", key.String()), slog.Int("line", line))
			continue
		}
		ds[key] = value
	}

	return ds, nil
}

// parseWide reads one timestamp per row and one value per group column
func (p *Parser) parseWide(ctx context.Context, header []string, data [][]string, report *Report) (domain.Dataset, error) {
	if len(header) < 2 {
		return nil, apperrors.NewStructureError(report.File, "has only one column. Expected: timestamp + group columns.")
	}

	groups := make([]string, len(header))
	for j := 1; j < len(header); j++ {
		groups[j] = normalizeHeader(header[j])
	}

	p.logger.DebugContext(ctx, "wide layout detected",
		slog.String("file", report.File),
		slog.Int("rows", len(data)),
		slog.Int("groups", len(header)-1))

	ds := make(domain.Dataset, len(data)*(len(header)-1))

	for i, row := range data {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		n := i + 1

		if len(row) < 2 {
			skip(report, n, "", fmt.Sprintf("Row %d: Insufficient columns", n))
			continue
		}

		rawTS := strings.TrimSpace(row[0])
		ts, err := ParseTimestamp(rawTS)
		if err != nil {
			skip(report, n, "", fmt.Sprintf("Row %d: Invalid timestamp '%s'", n, rawTS))
			continue
		}

		// Cells beyond the header width have no group and are ignored
		for j := 1; j < len(header) && j < len(row); j++ {
			group := groups[j]
			if group == "" {
				skip(report, n, "", fmt.Sprintf("Row %d, Column %d: Missing group header", n, j+1))
				continue
			}

			raw := strings.TrimSpace(row[j])
			if raw == "" {
				skip(report, n, group, fmt.Sprintf("Row %d, Group %s: Empty value", n, group))
				continue
			}

			value, err := ParseValue(raw)
			if err != nil {
				skip(report, n, group, fmt.Sprintf("Row %d, Group %s: Invalid value '%s'", n, group, raw))
				continue
			}

			key := domain.NewSeriesKey(ts, group)
			if _, dup := ds[key]; dup {
				skip(report, n, group, fmt.Sprintf("Row %d, Group %s: Duplicate key", n, group))
				continue
			}
			ds[key] = value
		}
	}

	return ds, nil
}

func skip(report *Report, row int, group, message string) {
	report.Skipped = append(report.Skipped, domain.SkipReason{Row: row, Group: group, Message: message})
}
