package exporter

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/Anest2009/Enerlytics/internal/errors"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

const (
	recordsSheet = "Records"
	summarySheet = "Summary"
)

// ExportXLSX writes a workbook with a Records sheet laid out like the CSV
// export and a Summary sheet with overall and per-group MAPE
func ExportXLSX(result *domain.AnalysisResult, path string) error {
	if result == nil {
		return apperrors.NewExportError(path, fmt.Errorf("no analysis result"))
	}

	if err := ensureDir(path); err != nil {
		return apperrors.NewExportError(path, err)
	}

	if err := writeWorkbook(result, path); err != nil {
		return apperrors.NewExportError(path, err)
	}

	slog.Info("Wrote XLSX export",
		slog.String("file_path", path),
		slog.Int("record_count", len(result.Records)))
	return nil
}

func writeWorkbook(result *domain.AnalysisResult, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), recordsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeRecordsSheet(f, result.Records); err != nil {
		return err
	}
	if err := writeSummarySheet(f, result); err != nil {
		return err
	}

	// SaveAs insists on a workbook extension; the caller owns the name
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := f.WriteTo(out); err != nil {
		out.Close()
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return out.Close()
}

func writeRecordsSheet(f *excelize.File, records []domain.MatchedRecord) error {
	sw, err := f.NewStreamWriter(recordsSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			formatTimestamp(r.Timestamp),
			r.GroupID,
			r.Forecast,
			r.Actual,
			r.OffsetUnits,
			r.OffsetPercent,
			r.OffsetPercentAbs,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return sw.Flush()
}

func writeSummarySheet(f *excelize.File, result *domain.AnalysisResult) error {
	sw, err := f.NewStreamWriter(summarySheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	rows := [][]interface{}{
		{"Overall MAPE", result.OverallMAPE},
		{"Total Records", result.TotalRecords},
		{"Unmatched Forecast Records", result.UnmatchedForecastRecords},
		{"Unmatched Actual Records", result.UnmatchedActualRecords},
		{},
		{"GroupId", "MAPE"},
	}
	for _, g := range result.Groups() {
		rows = append(rows, []interface{}{g, result.GroupMAPE[g]})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	return sw.Flush()
}
