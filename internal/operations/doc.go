// Package operations runs an analysis as an ordered sequence of steps.
//
// A run parses the forecast and actual inputs, matches them on their series
// keys, computes accuracy metrics and optionally exports the result:
//
//	parse -> match -> analyze -> export
//
// Core Components:
//
// Manager: executes the registered steps sequentially for one
// AnalysisRequest. The context is checked between steps and every step runs
// under its own timeout. When a step fails the remaining steps are marked
// skipped and the failure is returned as an *OperationError wrapping the
// underlying cause, so errors.Is still matches the analysis sentinels.
//
// Step: a single unit of work. Steps read their inputs from and write their
// outputs to the OperationState.
//
// OperationState: the per-run state, holding the request, parsed datasets and
// reports, the match result, the analysis result, the export path and the
// status of every step.
//
// OperationTracer: wraps each run and step in an OpenTelemetry span and
// records the business metrics.
//
// Usage:
//
//	manager := operations.NewAnalysisManager(operations.NewConfig(), tracer, logger)
//	state, err := manager.Execute(ctx, "", operations.AnalysisRequest{
//		ForecastPath: "forecast.csv",
//		ActualPath:   "actual.csv",
//	})
package operations
