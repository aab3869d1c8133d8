package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Anest2009/Enerlytics/internal/infrastructure"
)

// Manager runs the registered steps of an analysis run in order
type Manager struct {
	registry *Registry
	config   *Config
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewManager creates a manager over an existing registry. A nil tracer
// disables spans and metrics.
func NewManager(registry *Registry, cfg *Config, tracer *OperationTracer, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	if tracer == nil {
		tracer, _ = NewOperationTracer(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		config:   cfg,
		tracer:   tracer,
		logger:   logger.With(slog.String("component", "operations")),
	}
}

// NewAnalysisManager creates a manager with the parse, match, analyze and
// export steps registered
func NewAnalysisManager(cfg *Config, tracer *OperationTracer, logger *slog.Logger) *Manager {
	if cfg == nil {
		cfg = NewConfig()
	}
	metrics := tracer.Metrics()

	registry := NewRegistry()
	for _, step := range []Step{
		NewParseStep(logger, cfg, metrics),
		NewMatchStep(logger, metrics),
		NewAnalyzeStep(logger),
		NewExportStep(logger, cfg, metrics),
	} {
		// IDs are fixed and distinct
		_ = registry.Register(step)
	}
	return NewManager(registry, cfg, tracer, logger)
}

// RegisterStage registers a step with the manager
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the step registry
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Execute runs every registered step for req. The returned state is never
// nil and holds the outputs of the steps that completed.
func (m *Manager) Execute(ctx context.Context, runID string, req AnalysisRequest) (*OperationState, error) {
	if runID == "" {
		runID = infrastructure.GenerateRunID()
	}
	ctx = infrastructure.WithRunID(infrastructure.EnsureTraceID(ctx), runID)

	state := NewOperationState(runID, req)
	steps := m.registry.List()
	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.StartRun(ctx, runID, req)
	state.Start()
	m.logger.InfoContext(ctx, "Analysis run started",
		slog.String("forecast", displayName(req.ForecastPath, req.ForecastName)),
		slog.String("actual", displayName(req.ActualPath, req.ActualName)),
		slog.Int("step_count", len(steps)))

	err := m.executeSequential(ctx, state, steps)

	switch {
	case err == nil:
		state.Complete()
		m.logger.InfoContext(ctx, "Analysis run completed",
			slog.Duration("duration", state.Duration()))
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
		m.logger.WarnContext(ctx, "Analysis run cancelled",
			slog.String("error", err.Error()))
	default:
		state.Fail(err)
		m.logger.ErrorContext(ctx, "Analysis run failed",
			slog.String("error", err.Error()))
	}
	m.tracer.EndRun(ctx, span, state.Duration(), err)

	return state, err
}

// executeSequential runs steps one by one, checking for cancellation
// between them. Steps after a failure are marked skipped.
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.skipRemaining(state, steps[i:], "run cancelled")
			return NewCancellationError(step.ID(), err)
		}

		m.logger.DebugContext(ctx, "Executing step",
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStage(ctx, state, step); err != nil {
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("previous step %s failed", step.ID()))
			return err
		}
	}
	return nil
}

// executeStage validates and runs a single step under its timeout
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())

	if err := step.Validate(state); err != nil {
		stepState.Fail(err)
		return WrapError(err, step.ID())
	}

	timeout := m.config.GetStageTimeout(step.ID())
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stageCtx, span := m.tracer.StartStep(stageCtx, state.ID, step.ID())
	stepState.Start()
	start := time.Now()

	err := step.Execute(stageCtx, state)
	duration := time.Since(start)
	m.tracer.EndStep(stageCtx, span, step.ID(), duration, err)

	if err != nil {
		err = m.classify(ctx, stageCtx, step.ID(), timeout, err)
		stepState.Fail(err)
		m.logger.ErrorContext(ctx, "Step failed",
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return err
	}

	// Steps may mark themselves skipped
	if stepState.GetStatus() == StepStatusActive {
		stepState.Complete()
	}
	m.logger.InfoContext(ctx, "Step completed",
		slog.String("step", step.ID()),
		slog.String("status", string(stepState.GetStatus())),
		slog.Duration("duration", duration))
	return nil
}

// classify turns context failures into timeout or cancellation errors
func (m *Manager) classify(parent, stageCtx context.Context, stepID string, timeout time.Duration, err error) *OperationError {
	switch {
	case parent.Err() != nil && errors.Is(err, parent.Err()):
		return NewCancellationError(stepID, err)
	case parent.Err() == nil && errors.Is(stageCtx.Err(), context.DeadlineExceeded) && errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(stepID, timeout, err)
	}
	return WrapError(err, stepID)
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if st := state.GetStage(step.ID()); st != nil && st.GetStatus() == StepStatusPending {
			st.Skip(reason)
		}
	}
}
