package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "github.com/Anest2009/Enerlytics/internal/errors"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// CSVWriter writes tabular files to disk
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteFile creates or truncates filePath, creating parent directories, and
// writes the header and records
func (w *CSVWriter) WriteFile(filePath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := ensureDir(filePath); err != nil {
		return err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	if err := writeRows(file, options); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

// writeRows writes an optional BOM, the header and the records to out
func writeRows(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func ensureDir(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

func recordRows(records []domain.MatchedRecord) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = recordRow(r)
	}
	return rows
}

// WriteCSV writes the export header and one line per record, in order, to out
func WriteCSV(out io.Writer, records []domain.MatchedRecord) error {
	return writeRows(out, WriteOptions{Headers: Header(), Records: recordRows(records)})
}

// ExportCSV writes records to path, replacing any existing file.
// Failures are reported as ExportFailed errors naming the path.
func ExportCSV(records []domain.MatchedRecord, path string) error {
	return NewCSVWriter(nil).Export(records, path)
}

// Export is ExportCSV with the writer's logger
func (w *CSVWriter) Export(records []domain.MatchedRecord, path string) error {
	err := w.WriteFile(path, WriteOptions{Headers: Header(), Records: recordRows(records)})
	if err != nil {
		return apperrors.NewExportError(path, err)
	}
	return nil
}
