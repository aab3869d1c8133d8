package services

import "errors"

// Analysis service errors
var (
	ErrAnalysisNotFound = errors.New("analysis run not found")
	ErrNoResult         = errors.New("analysis run has no result")
)
