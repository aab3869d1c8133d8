package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds the application-specific instruments.
// All record methods are safe on a nil receiver.
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Analysis run metrics
	AnalysisRunsTotal   metric.Int64Counter
	AnalysisRunDuration metric.Float64Histogram
	AnalysisActiveRuns  metric.Int64UpDownCounter
	AnalysisStepsTotal  metric.Int64Counter
	AnalysisStepLatency metric.Float64Histogram

	// Record flow
	RecordsParsed    metric.Int64Counter
	RecordsSkipped   metric.Int64Counter
	RecordsMatched   metric.Int64Counter
	RecordsUnmatched metric.Int64Counter

	// Export
	ExportsTotal metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration histogram: %w", err)
	}

	if m.AnalysisRunsTotal, err = meter.Int64Counter(
		"analysis_runs_total",
		metric.WithDescription("Completed analysis runs by outcome"),
		metric.WithUnit("{run}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis_runs_total counter: %w", err)
	}

	if m.AnalysisRunDuration, err = meter.Float64Histogram(
		"analysis_run_duration_seconds",
		metric.WithDescription("Wall time of an analysis run"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis_run_duration histogram: %w", err)
	}

	if m.AnalysisActiveRuns, err = meter.Int64UpDownCounter(
		"analysis_active_runs",
		metric.WithDescription("Analysis runs currently executing"),
		metric.WithUnit("{run}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis_active_runs counter: %w", err)
	}

	if m.AnalysisStepsTotal, err = meter.Int64Counter(
		"analysis_steps_total",
		metric.WithDescription("Pipeline steps executed by step and outcome"),
		metric.WithUnit("{step}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis_steps_total counter: %w", err)
	}

	if m.AnalysisStepLatency, err = meter.Float64Histogram(
		"analysis_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis_step_duration histogram: %w", err)
	}

	if m.RecordsParsed, err = meter.Int64Counter(
		"records_parsed_total",
		metric.WithDescription("Records accepted by the parser"),
		metric.WithUnit("{record}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create records_parsed_total counter: %w", err)
	}

	if m.RecordsSkipped, err = meter.Int64Counter(
		"records_skipped_total",
		metric.WithDescription("Rows or cells skipped by the parser"),
		metric.WithUnit("{record}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create records_skipped_total counter: %w", err)
	}

	if m.RecordsMatched, err = meter.Int64Counter(
		"records_matched_total",
		metric.WithDescription("Forecast/actual pairs joined on timestamp and group"),
		metric.WithUnit("{record}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create records_matched_total counter: %w", err)
	}

	if m.RecordsUnmatched, err = meter.Int64Counter(
		"records_unmatched_total",
		metric.WithDescription("Records without a counterpart, by side"),
		metric.WithUnit("{record}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create records_unmatched_total counter: %w", err)
	}

	if m.ExportsTotal, err = meter.Int64Counter(
		"exports_total",
		metric.WithDescription("Exports written by format and outcome"),
		metric.WithUnit("{file}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create exports_total counter: %w", err)
	}

	return m, nil
}

func statusAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}

// RecordHTTPRequest records one served request
func (m *BusinessMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RunStarted increments the active run gauge
func (m *BusinessMetrics) RunStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.AnalysisActiveRuns.Add(ctx, 1)
}

// RunFinished records the outcome of a run and decrements the active gauge
func (m *BusinessMetrics) RunFinished(ctx context.Context, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.AnalysisActiveRuns.Add(ctx, -1)
	attrs := metric.WithAttributes(statusAttr(success))
	m.AnalysisRunsTotal.Add(ctx, 1, attrs)
	m.AnalysisRunDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStep records one pipeline step execution
func (m *BusinessMetrics) RecordStep(ctx context.Context, step string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("step", step), statusAttr(success))
	m.AnalysisStepsTotal.Add(ctx, 1, attrs)
	m.AnalysisStepLatency.Record(ctx, duration.Seconds(), attrs)
}

// RecordParse records the parser outcome for one input ("forecast" or "actual")
func (m *BusinessMetrics) RecordParse(ctx context.Context, role string, parsed, skipped int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("input", role))
	m.RecordsParsed.Add(ctx, int64(parsed), attrs)
	m.RecordsSkipped.Add(ctx, int64(skipped), attrs)
}

// RecordMatch records the join outcome
func (m *BusinessMetrics) RecordMatch(ctx context.Context, matched, unmatchedForecast, unmatchedActual int) {
	if m == nil {
		return
	}
	m.RecordsMatched.Add(ctx, int64(matched))
	m.RecordsUnmatched.Add(ctx, int64(unmatchedForecast), metric.WithAttributes(attribute.String("side", "forecast")))
	m.RecordsUnmatched.Add(ctx, int64(unmatchedActual), metric.WithAttributes(attribute.String("side", "actual")))
}

// RecordExport records one export attempt
func (m *BusinessMetrics) RecordExport(ctx context.Context, format string, success bool) {
	if m == nil {
		return
	}
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format), statusAttr(success)))
}
