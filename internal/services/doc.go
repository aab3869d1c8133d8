// Package services implements the business logic layer between the HTTP
// handlers and the analysis pipeline.
//
// AnalysisService executes runs through the operations manager and keeps the
// most recent runs in memory, keyed by run ID, so their results can be
// fetched or exported later. Each run is independent; retained results are
// never shared between runs.
//
// HealthService reports liveness, readiness and version information.
package services
