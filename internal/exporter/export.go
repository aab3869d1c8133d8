package exporter

import (
	"fmt"

	apperrors "github.com/Anest2009/Enerlytics/internal/errors"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// Export writes result to path in the given format
func Export(result *domain.AnalysisResult, format domain.ExportFormat, path string) error {
	switch format {
	case domain.ExportFormatCSV, "":
		if result == nil {
			return apperrors.NewExportError(path, fmt.Errorf("no analysis result"))
		}
		return ExportCSV(result.Records, path)
	case domain.ExportFormatXLSX:
		return ExportXLSX(result, path)
	default:
		return apperrors.NewExportError(path, fmt.Errorf("unsupported export format %q", format))
	}
}

// ParseFormat maps a user supplied format name to an ExportFormat.
// The empty string selects CSV.
func ParseFormat(s string) (domain.ExportFormat, error) {
	switch domain.ExportFormat(s) {
	case domain.ExportFormatCSV, "":
		return domain.ExportFormatCSV, nil
	case domain.ExportFormatXLSX:
		return domain.ExportFormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}
