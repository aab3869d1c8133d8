package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Anest2009/Enerlytics/internal/errors"
	"github.com/Anest2009/Enerlytics/internal/operations"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

const (
	forecastCSV = "timestamp,group_id,value\n" +
		"2024-01-01 00:00:00,North,110\n" +
		"2024-01-01 01:00:00,North,100\n"
	actualCSV = "timestamp,group_id,value\n" +
		"2024-01-01 00:00:00,North,100\n" +
		"2024-01-01 01:00:00,North,80\n" +
		"2024-01-01 02:00:00,North,70\n"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newService(t *testing.T, maxRetained int) (*AnalysisService, string) {
	t.Helper()
	exportDir := t.TempDir()
	cfg := operations.NewConfig()
	cfg.ExportDir = exportDir
	manager := operations.NewAnalysisManager(cfg, nil, testLogger())
	return NewAnalysisService(manager, exportDir, maxRetained, testLogger()), exportDir
}

func validRequest(t *testing.T) operations.AnalysisRequest {
	dir := t.TempDir()
	return operations.AnalysisRequest{
		ForecastPath: writeFile(t, dir, "forecast.csv", forecastCSV),
		ActualPath:   writeFile(t, dir, "actual.csv", actualCSV),
	}
}

func TestAnalysisService_Run(t *testing.T) {
	svc, _ := newService(t, 0)
	ctx := context.Background()

	summary, err := svc.Run(ctx, validRequest(t))
	require.NoError(t, err)

	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, operations.OperationStatusCompleted, summary.Status)
	assert.Equal(t, "forecast.csv", summary.Forecast)
	assert.Equal(t, "actual.csv", summary.Actual)
	assert.Equal(t, 2, summary.TotalRecords)
	assert.Equal(t, 0, summary.UnmatchedForecast)
	assert.Equal(t, 1, summary.UnmatchedActual)
	// |110-100|/100 = 10%, |100-80|/80 = 25%
	assert.InDelta(t, 17.5, summary.OverallMAPE, 1e-9)
	assert.Len(t, summary.Steps, 4)

	result, err := svc.Get(ctx, summary.ID)
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
	assert.InDelta(t, 17.5, result.GroupMAPE["North"], 1e-9)

	got, err := svc.Summary(ctx, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, summary.ID, got.ID)
}

func TestAnalysisService_RunFailure(t *testing.T) {
	svc, _ := newService(t, 0)
	ctx := context.Background()

	req := validRequest(t)
	req.ActualPath = writeFile(t, t.TempDir(), "empty.csv", "")

	summary, err := svc.Run(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrFileEmpty)
	require.NotNil(t, summary)
	assert.Equal(t, operations.OperationStatusFailed, summary.Status)
	assert.Contains(t, summary.Error, "empty.csv")

	// Failed runs stay listed but have no result
	assert.Equal(t, 1, svc.Count())
	_, err = svc.Get(ctx, summary.ID)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestAnalysisService_NotFound(t *testing.T) {
	svc, _ := newService(t, 0)
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
	_, err = svc.Summary(ctx, "missing")
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
	_, err = svc.Export(ctx, "missing", domain.ExportFormatCSV)
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), ErrAnalysisNotFound)
}

func TestAnalysisService_Retention(t *testing.T) {
	svc, _ := newService(t, 2)
	ctx := context.Background()
	req := validRequest(t)

	var ids []string
	for i := 0; i < 3; i++ {
		summary, err := svc.Run(ctx, req)
		require.NoError(t, err, fmt.Sprintf("run %d", i))
		ids = append(ids, summary.ID)
	}

	assert.Equal(t, 2, svc.Count())
	_, err := svc.Get(ctx, ids[0])
	assert.ErrorIs(t, err, ErrAnalysisNotFound)

	list := svc.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
}

func TestAnalysisService_RunsAreIndependent(t *testing.T) {
	svc, _ := newService(t, 0)
	ctx := context.Background()
	req := validRequest(t)

	first, err := svc.Run(ctx, req)
	require.NoError(t, err)
	second, err := svc.Run(ctx, req)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	a, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	b, err := svc.Get(ctx, second.ID)
	require.NoError(t, err)

	a.Records[0].Forecast = -1
	assert.NotEqual(t, a.Records[0].Forecast, b.Records[0].Forecast)
}

func TestAnalysisService_Export(t *testing.T) {
	svc, exportDir := newService(t, 0)
	ctx := context.Background()

	summary, err := svc.Run(ctx, validRequest(t))
	require.NoError(t, err)

	for _, format := range []domain.ExportFormat{domain.ExportFormatCSV, domain.ExportFormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			path, err := svc.Export(ctx, summary.ID, format)
			require.NoError(t, err)
			assert.Equal(t, exportDir, filepath.Dir(path))
			assert.Equal(t, format.Extension(), filepath.Ext(path))
			assert.FileExists(t, path)
		})
	}

	path, err := svc.Export(ctx, summary.ID, domain.ExportFormatCSV)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Timestamp,GroupId,Forecast"))
}

func TestAnalysisService_Delete(t *testing.T) {
	svc, _ := newService(t, 0)
	ctx := context.Background()

	summary, err := svc.Run(ctx, validRequest(t))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, summary.ID))
	assert.Equal(t, 0, svc.Count())
	assert.Empty(t, svc.List(ctx))
}

func TestHealthService(t *testing.T) {
	svc, exportDir := newService(t, 0)
	hs := NewHealthService("1.2.3", exportDir, svc, testLogger())
	ctx := context.Background()

	assert.Equal(t, "ok", hs.HealthCheck(ctx).Status)
	assert.Equal(t, "alive", hs.LivenessCheck(ctx).Status)
	assert.Equal(t, "1.2.3", hs.Version()["version"])

	ready := hs.ReadinessCheck(ctx)
	assert.Equal(t, "ready", ready.Status)

	blocked := NewHealthService("1.2.3", writeFile(t, t.TempDir(), "file", "x"), svc, testLogger())
	assert.Equal(t, "not_ready", blocked.ReadinessCheck(ctx).Status)

	noSvc := NewHealthService("1.2.3", exportDir, nil, testLogger())
	assert.Equal(t, "not_ready", noSvc.ReadinessCheck(ctx).Status)
}
