package operations

import (
	"time"

	"github.com/Anest2009/Enerlytics/internal/config"
)

// Config represents the pipeline execution configuration
type Config struct {
	// ParallelParse reads the forecast and actual inputs concurrently
	ParallelParse bool `json:"parallel_parse"`

	// ExportDir receives exports that do not name a path
	ExportDir string `json:"export_dir"`

	// SampleSize bounds the skip reasons carried by a NoValidRecords error
	SampleSize int `json:"sample_size"`

	// ValueColumn overrides the value synonyms of long format inputs
	ValueColumn string `json:"value_column,omitempty"`

	// Step-specific timeouts
	StageTimeouts map[string]time.Duration `json:"stage_timeouts"`
}

// NewConfig returns the default pipeline configuration
func NewConfig() *Config {
	return &Config{
		ParallelParse: true,
		ExportDir:     "exports",
		SampleSize:    10,
		StageTimeouts: map[string]time.Duration{
			StepIDParse:  DefaultParseTimeout,
			StepIDExport: DefaultExportTimeout,
		},
	}
}

// ConfigFrom derives the pipeline configuration from the analysis settings
func ConfigFrom(cfg config.AnalysisConfig) *Config {
	c := NewConfig()
	c.ParallelParse = cfg.ParallelParse
	if cfg.ExportDir != "" {
		c.ExportDir = cfg.ExportDir
	}
	if cfg.SkipReasonSample > 0 {
		c.SampleSize = cfg.SkipReasonSample
	}
	if cfg.RunTimeout > 0 {
		for id := range c.StageTimeouts {
			c.StageTimeouts[id] = cfg.RunTimeout
		}
	}
	return c
}

// GetStageTimeout returns the timeout for a specific Step
func (c *Config) GetStageTimeout(stepID string) time.Duration {
	if timeout, ok := c.StageTimeouts[stepID]; ok {
		return timeout
	}
	return DefaultStepTimeout
}

// SetStageTimeout sets the timeout for a specific Step
func (c *Config) SetStageTimeout(stepID string, timeout time.Duration) {
	if c.StageTimeouts == nil {
		c.StageTimeouts = make(map[string]time.Duration)
	}
	c.StageTimeouts[stepID] = timeout
}
