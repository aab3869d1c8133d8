package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/Anest2009/Enerlytics/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	exportDir string
	analyses  *AnalysisService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version, exportDir string, analyses *AnalysisService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		exportDir: exportDir,
		analyses:  analyses,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "Performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether runs can be executed and exported
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"analysis": hs.checkAnalysisHealth(),
			"exports":  hs.checkExportHealth(),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns build and runtime version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":       hs.version,
		"build_time":    info.BuildTime,
		"git_commit":    info.GitCommit,
		"api_version":   info.APIVersion,
		"export_format": info.ExportFormat,
		"go_version":    info.GoVersion,
		"os":            info.OS,
		"arch":          info.Architecture,
		"uptime":        time.Since(hs.startTime).Seconds(),
		"start_time":    hs.startTime.Format(time.RFC3339),
		"current_time":  time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkAnalysisHealth() ServiceHealth {
	if hs.analyses == nil {
		return ServiceHealth{Status: "not_ready", Message: "analysis service not configured"}
	}
	return ServiceHealth{Status: "ready"}
}

// checkExportHealth reports an export directory that is missing as ready,
// since exports create it on demand
func (hs *HealthService) checkExportHealth() ServiceHealth {
	info, err := os.Stat(hs.exportDir)
	switch {
	case os.IsNotExist(err):
		return ServiceHealth{Status: "ready", Message: "export directory will be created on first export"}
	case err != nil:
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	case !info.IsDir():
		return ServiceHealth{Status: "not_ready", Message: "export path is not a directory"}
	}
	return ServiceHealth{Status: "ready"}
}
