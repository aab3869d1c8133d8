package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/Anest2009/Enerlytics/internal/exporter"
	"github.com/Anest2009/Enerlytics/internal/infrastructure"
	"github.com/Anest2009/Enerlytics/internal/operations"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// DefaultMaxRetainedRuns bounds the runs kept in memory when no limit is given
const DefaultMaxRetainedRuns = 50

// RunSummary describes one analysis run without its matched records
type RunSummary struct {
	ID                string                          `json:"id"`
	Status            operations.OperationStatusValue `json:"status"`
	StartedAt         time.Time                       `json:"started_at"`
	DurationMS        int64                           `json:"duration_ms"`
	Forecast          string                          `json:"forecast"`
	Actual            string                          `json:"actual"`
	TotalRecords      int                             `json:"total_records"`
	OverallMAPE       float64                         `json:"overall_mape"`
	UnmatchedForecast int                             `json:"unmatched_forecast"`
	UnmatchedActual   int                             `json:"unmatched_actual"`
	ExportPath        string                          `json:"export_path,omitempty"`
	ForecastReport    *domain.ParseReport             `json:"forecast_report,omitempty"`
	ActualReport      *domain.ParseReport             `json:"actual_report,omitempty"`
	Steps             []operations.StepSnapshot       `json:"steps"`
	Error             string                          `json:"error,omitempty"`
}

// AnalysisRunner executes one analysis run
type AnalysisRunner interface {
	Execute(ctx context.Context, runID string, req operations.AnalysisRequest) (*operations.OperationState, error)
}

// AnalysisService runs analyses and retains their results by run ID.
// Only the most recent runs are kept; older ones are evicted.
type AnalysisService struct {
	runner      AnalysisRunner
	logger      *slog.Logger
	exportDir   string
	maxRetained int

	mu    sync.RWMutex
	runs  map[string]*operations.OperationState
	order []string
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(runner AnalysisRunner, exportDir string, maxRetained int, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetained <= 0 {
		maxRetained = DefaultMaxRetainedRuns
	}
	return &AnalysisService{
		runner:      runner,
		logger:      logger.With(slog.String("service", "analysis")),
		exportDir:   exportDir,
		maxRetained: maxRetained,
		runs:        make(map[string]*operations.OperationState),
	}
}

// Run executes an analysis and retains it. Failed runs are retained too,
// so their step states stay inspectable; the error is returned alongside
// the summary.
func (s *AnalysisService) Run(ctx context.Context, req operations.AnalysisRequest) (*RunSummary, error) {
	runID := infrastructure.GenerateRunID()
	logger := infrastructure.LoggerWithContext(infrastructure.WithRunID(ctx, runID))

	state, err := s.runner.Execute(ctx, runID, req)
	if state == nil {
		return nil, err
	}
	s.store(state)

	if err != nil {
		logger.WarnContext(ctx, "Analysis run did not complete",
			slog.String("run_id", runID),
			slog.String("error", err.Error()))
	} else if result := state.GetResult(); result != nil && result.TotalRecords == 0 {
		logger.WarnContext(ctx, "No matching records found between forecast and actual data",
			slog.String("run_id", runID))
	}

	return summarize(state), err
}

// List returns the retained runs, newest first
func (s *AnalysisService) List(ctx context.Context) []RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunSummary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, *summarize(s.runs[s.order[i]]))
	}
	return out
}

// Summary returns the summary of a retained run
func (s *AnalysisService) Summary(ctx context.Context, id string) (*RunSummary, error) {
	state, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return summarize(state), nil
}

// Get returns the analysis result of a retained run
func (s *AnalysisService) Get(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	state, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	result := state.GetResult()
	if result == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoResult, id)
	}
	return result, nil
}

// Export writes the result of a retained run to the export directory and
// returns the file path
func (s *AnalysisService) Export(ctx context.Context, id string, format domain.ExportFormat) (string, error) {
	result, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.exportDir, exporter.DefaultFileName(time.Now(), format))
	if err := exporter.Export(result, format, path); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "Exported analysis run",
		slog.String("run_id", id),
		slog.String("format", string(format)),
		slog.String("path", path))
	return path, nil
}

// Delete removes a retained run
func (s *AnalysisService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrAnalysisNotFound, id)
	}
	delete(s.runs, id)
	for i, runID := range s.order {
		if runID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Count returns the number of retained runs
func (s *AnalysisService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

func (s *AnalysisService) lookup(id string) (*operations.OperationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisNotFound, id)
	}
	return state, nil
}

func (s *AnalysisService) store(state *operations.OperationState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[state.ID] = state
	s.order = append(s.order, state.ID)

	for len(s.order) > s.maxRetained {
		evicted := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, evicted)
		s.logger.Debug("Evicted analysis run", slog.String("run_id", evicted))
	}
}

func summarize(state *operations.OperationState) *RunSummary {
	resp := state.ToResponse()
	req := state.Request

	summary := &RunSummary{
		ID:             resp.ID,
		Status:         resp.Status,
		StartedAt:      state.StartTime,
		DurationMS:     resp.Duration.Milliseconds(),
		Forecast:       nameOf(req.ForecastPath, req.ForecastName),
		Actual:         nameOf(req.ActualPath, req.ActualName),
		ExportPath:     state.GetExportPath(),
		ForecastReport: state.ForecastReport,
		ActualReport:   state.ActualReport,
		Steps:          resp.Steps,
		Error:          resp.Error,
	}
	if result := state.GetResult(); result != nil {
		summary.TotalRecords = result.TotalRecords
		summary.OverallMAPE = result.OverallMAPE
		summary.UnmatchedForecast = result.UnmatchedForecastRecords
		summary.UnmatchedActual = result.UnmatchedActualRecords
	}
	return summary
}

func nameOf(path, name string) string {
	if name != "" {
		return name
	}
	return filepath.Base(path)
}
