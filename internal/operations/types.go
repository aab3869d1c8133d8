package operations

import (
	"time"

	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// Step identifiers, in execution order
const (
	StepIDParse   = "parse"
	StepIDMatch   = "match"
	StepIDAnalyze = "analyze"
	StepIDExport  = "export"
)

// Step names
const (
	StepNameParse   = "Input Parsing"
	StepNameMatch   = "Record Matching"
	StepNameAnalyze = "Accuracy Analysis"
	StepNameExport  = "Result Export"
)

// Default timeouts
const (
	DefaultStepTimeout   = 5 * time.Minute
	DefaultParseTimeout  = 10 * time.Minute
	DefaultExportTimeout = 5 * time.Minute
)

// AnalysisRequest describes one reconciliation run
type AnalysisRequest struct {
	ForecastPath string `json:"forecast_path" validate:"required"`
	ActualPath   string `json:"actual_path" validate:"required"`
	// ForecastName and ActualName override the file names used in
	// diagnostics, e.g. with the original names of uploaded files
	ForecastName string `json:"forecast_name,omitempty"`
	ActualName   string `json:"actual_name,omitempty"`
	// ExportFormat is empty when no export is wanted
	ExportFormat domain.ExportFormat `json:"export_format,omitempty" validate:"omitempty,oneof=csv xlsx"`
	// ExportPath defaults to a timestamped name in the configured export directory
	ExportPath string `json:"export_path,omitempty"`
}

// OperationResponse summarizes a finished run
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    []StepSnapshot        `json:"steps"`
	Error    string                `json:"error,omitempty"`
}
