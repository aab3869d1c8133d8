package operations

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Anest2009/Enerlytics/internal/accuracy"
	"github.com/Anest2009/Enerlytics/internal/dataprocessing"
	apperrors "github.com/Anest2009/Enerlytics/internal/errors"
	"github.com/Anest2009/Enerlytics/internal/exporter"
	"github.com/Anest2009/Enerlytics/internal/infrastructure"
	"github.com/Anest2009/Enerlytics/internal/matching"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// displayName returns the name diagnostics use for an input
func displayName(path, name string) string {
	if name != "" {
		return name
	}
	return filepath.Base(path)
}

// ParseStep reads the forecast and actual inputs into keyed datasets
type ParseStep struct {
	BaseStage
	logger  *slog.Logger
	config  *Config
	metrics *infrastructure.BusinessMetrics
}

// NewParseStep creates the parse step
func NewParseStep(logger *slog.Logger, cfg *Config, metrics *infrastructure.BusinessMetrics) *ParseStep {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	return &ParseStep{
		BaseStage: NewBaseStage(StepIDParse, StepNameParse),
		logger:    logger.With(slog.String("step", StepIDParse)),
		config:    cfg,
		metrics:   metrics,
	}
}

// Validate requires both input paths
func (s *ParseStep) Validate(state *OperationState) error {
	if state.Request.ForecastPath == "" {
		return NewValidationError(s.ID(), "forecast path is required")
	}
	if state.Request.ActualPath == "" {
		return NewValidationError(s.ID(), "actual path is required")
	}
	return nil
}

type parsed struct {
	data   domain.Dataset
	report *domain.ParseReport
}

// Execute parses both inputs, concurrently when configured
func (s *ParseStep) Execute(ctx context.Context, state *OperationState) error {
	req := state.Request
	var forecast, actual parsed

	parseForecast := func(ctx context.Context) error {
		var err error
		forecast.data, forecast.report, err = s.parseInput(ctx, "forecast", req.ForecastPath, req.ForecastName)
		return err
	}
	parseActual := func(ctx context.Context) error {
		var err error
		actual.data, actual.report, err = s.parseInput(ctx, "actual", req.ActualPath, req.ActualName)
		return err
	}

	if s.config.ParallelParse {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return parseForecast(gctx) })
		g.Go(func() error { return parseActual(gctx) })
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		if err := parseForecast(ctx); err != nil {
			return err
		}
		if err := parseActual(ctx); err != nil {
			return err
		}
	}

	state.mu.Lock()
	state.Forecast, state.ForecastReport = forecast.data, forecast.report
	state.Actual, state.ActualReport = actual.data, actual.report
	state.mu.Unlock()

	if st := state.GetStage(s.ID()); st != nil {
		st.SetMessage(fmt.Sprintf("forecast: %d records, actual: %d records", len(forecast.data), len(actual.data)))
	}
	return nil
}

func (s *ParseStep) parseInput(ctx context.Context, role, path, name string) (domain.Dataset, *domain.ParseReport, error) {
	name = displayName(path, name)
	parser := dataprocessing.NewParser(s.logger.With(slog.String("input", role))).
		WithSampleSize(s.config.SampleSize)
	if s.config.ValueColumn != "" {
		parser = parser.WithValueColumn(s.config.ValueColumn)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewIOError(name, err)
	}
	defer f.Close()

	data, report, err := parser.Parse(ctx, f, name)
	if report != nil {
		s.metrics.RecordParse(ctx, role, report.RecordsParsed, len(report.Skipped))
	}
	return data, report, err
}

// MatchStep joins the two datasets on their series keys
type MatchStep struct {
	BaseStage
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewMatchStep creates the match step
func NewMatchStep(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *MatchStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchStep{
		BaseStage: NewBaseStage(StepIDMatch, StepNameMatch),
		logger:    logger.With(slog.String("step", StepIDMatch)),
		metrics:   metrics,
	}
}

// Validate requires parsed datasets
func (s *MatchStep) Validate(state *OperationState) error {
	state.mu.RLock()
	defer state.mu.RUnlock()
	if state.Forecast == nil || state.Actual == nil {
		return NewValidationError(s.ID(), "both datasets must be parsed before matching")
	}
	return nil
}

// Execute matches the datasets
func (s *MatchStep) Execute(ctx context.Context, state *OperationState) error {
	state.mu.RLock()
	result := matching.Match(state.Forecast, state.Actual)
	state.mu.RUnlock()

	s.metrics.RecordMatch(ctx, len(result.Records), result.UnmatchedForecast, result.UnmatchedActual)
	s.logger.InfoContext(ctx, "Matched records",
		slog.Int("matched", len(result.Records)),
		slog.Int("unmatched_forecast", result.UnmatchedForecast),
		slog.Int("unmatched_actual", result.UnmatchedActual))
	if len(result.Records) == 0 {
		s.logger.WarnContext(ctx, "No matching records found between forecast and actual data")
	}

	state.mu.Lock()
	state.Match = &result
	state.mu.Unlock()

	if st := state.GetStage(s.ID()); st != nil {
		st.SetMessage(fmt.Sprintf("%d matched", len(result.Records)))
	}
	return nil
}

// AnalyzeStep computes the accuracy metrics of the matched records
type AnalyzeStep struct {
	BaseStage
	logger *slog.Logger
}

// NewAnalyzeStep creates the analyze step
func NewAnalyzeStep(logger *slog.Logger) *AnalyzeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeStep{
		BaseStage: NewBaseStage(StepIDAnalyze, StepNameAnalyze),
		logger:    logger.With(slog.String("step", StepIDAnalyze)),
	}
}

// Validate requires a match result
func (s *AnalyzeStep) Validate(state *OperationState) error {
	state.mu.RLock()
	defer state.mu.RUnlock()
	if state.Match == nil {
		return NewValidationError(s.ID(), "records must be matched before analysis")
	}
	return nil
}

// Execute computes overall and per-group MAPE
func (s *AnalyzeStep) Execute(ctx context.Context, state *OperationState) error {
	state.mu.RLock()
	m := state.Match
	state.mu.RUnlock()

	result := accuracy.Analyze(m.Records, m.UnmatchedForecast, m.UnmatchedActual)
	state.SetResult(result)

	s.logger.InfoContext(ctx, "Computed accuracy metrics",
		slog.Float64("overall_mape", result.OverallMAPE),
		slog.Int("groups", len(result.GroupMAPE)),
		slog.Int("total_records", result.TotalRecords))

	if st := state.GetStage(s.ID()); st != nil {
		st.SetMessage(fmt.Sprintf("overall MAPE %.2f%%", result.OverallMAPE))
	}
	return nil
}

// ExportStep writes the result when the request asks for an export
type ExportStep struct {
	BaseStage
	logger  *slog.Logger
	config  *Config
	metrics *infrastructure.BusinessMetrics
	now     func() time.Time
}

// NewExportStep creates the export step
func NewExportStep(logger *slog.Logger, cfg *Config, metrics *infrastructure.BusinessMetrics) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	return &ExportStep{
		BaseStage: NewBaseStage(StepIDExport, StepNameExport),
		logger:    logger.With(slog.String("step", StepIDExport)),
		config:    cfg,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Validate requires an analysis result and a known format
func (s *ExportStep) Validate(state *OperationState) error {
	switch state.Request.ExportFormat {
	case "", domain.ExportFormatCSV, domain.ExportFormatXLSX:
	default:
		return NewValidationError(s.ID(), fmt.Sprintf("unsupported export format %q", state.Request.ExportFormat))
	}
	if state.GetResult() == nil {
		return NewValidationError(s.ID(), "analysis must complete before export")
	}
	return nil
}

// Execute writes the export, or marks the step skipped when none was requested
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	format := state.Request.ExportFormat
	if format == "" {
		if st := state.GetStage(s.ID()); st != nil {
			st.Skip("no export requested")
		}
		return nil
	}

	path := state.Request.ExportPath
	if path == "" {
		path = filepath.Join(s.config.ExportDir, exporter.DefaultFileName(s.now(), format))
	}

	err := exporter.Export(state.GetResult(), format, path)
	s.metrics.RecordExport(ctx, string(format), err == nil)
	if err != nil {
		return err
	}

	state.SetExportPath(path)
	s.logger.InfoContext(ctx, "Results exported",
		slog.String("format", string(format)),
		slog.String("path", path))
	if st := state.GetStage(s.ID()); st != nil {
		st.SetMessage(path)
	}
	return nil
}
