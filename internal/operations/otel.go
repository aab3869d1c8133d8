package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Anest2009/Enerlytics/internal/infrastructure"
)

// TracerName is the instrumentation scope of run spans
const TracerName = "github.com/Anest2009/Enerlytics/operations"

// OperationTracer provides OpenTelemetry instrumentation for analysis runs.
// A tracer built from nil providers uses the global no-op implementations.
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewOperationTracer creates a new run tracer
func NewOperationTracer(providers *infrastructure.OTelProviders) (*OperationTracer, error) {
	if providers == nil {
		return &OperationTracer{tracer: otel.Tracer(TracerName)}, nil
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	tracer := providers.Tracer
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &OperationTracer{tracer: tracer, metrics: metrics}, nil
}

// Metrics returns the business metrics, nil when metrics are disabled
func (t *OperationTracer) Metrics() *infrastructure.BusinessMetrics {
	if t == nil {
		return nil
	}
	return t.metrics
}

// StartRun opens the span covering a whole run
func (t *OperationTracer) StartRun(ctx context.Context, runID string, req AnalysisRequest) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "analysis.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.forecast", displayName(req.ForecastPath, req.ForecastName)),
			attribute.String("run.actual", displayName(req.ActualPath, req.ActualName)),
			attribute.String("run.export_format", string(req.ExportFormat)),
		),
	)
	t.metrics.RunStarted(ctx)
	return ctx, span
}

// EndRun closes the run span and records its outcome
func (t *OperationTracer) EndRun(ctx context.Context, span trace.Span, duration time.Duration, err error) {
	t.metrics.RunFinished(ctx, duration, err == nil)
	span.SetAttributes(attribute.Float64("run.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "run completed")
	}
	span.End()
}

// StartStep opens a child span for one step
func (t *OperationTracer) StartStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "analysis.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// EndStep closes a step span and records its latency
func (t *OperationTracer) EndStep(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	t.metrics.RecordStep(ctx, stepID, duration, err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
