package http

import (
	"context"

	"github.com/Anest2009/Enerlytics/internal/operations"
	"github.com/Anest2009/Enerlytics/internal/services"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// AnalysisService defines the interface for analysis runs
type AnalysisService interface {
	Run(ctx context.Context, req operations.AnalysisRequest) (*services.RunSummary, error)
	List(ctx context.Context) []services.RunSummary
	Summary(ctx context.Context, id string) (*services.RunSummary, error)
	Get(ctx context.Context, id string) (*domain.AnalysisResult, error)
	Export(ctx context.Context, id string, format domain.ExportFormat) (string, error)
	Delete(ctx context.Context, id string) error
}
