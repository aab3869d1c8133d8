package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anest2009/Enerlytics/internal/config"
)

const (
	forecastCSV = "timestamp,group_id,value\n" +
		"2024-01-01 00:00:00,North,110\n" +
		"2024-01-01 01:00:00,North,100\n"
	actualCSV = "timestamp,group_id,value\n" +
		"2024-01-01 00:00:00,North,100\n" +
		"2024-01-01 01:00:00,North,80\n"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Analysis.ExportDir = filepath.Join(t.TempDir(), "exports")
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	application, err := NewApplication(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = application.OTelProviders.Shutdown(context.Background())
	})
	return application
}

func uploadBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for field, content := range map[string]string{"forecast": forecastCSV, "actual": actualCSV} {
		fw, err := mw.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestNewApplication_Wiring(t *testing.T) {
	application := newTestApp(t, testConfig(t))

	assert.NotNil(t, application.Router)
	assert.NotNil(t, application.Server)
	assert.NotNil(t, application.Manager)
	assert.NotNil(t, application.AnalysisService)
	assert.NotNil(t, application.HealthService)
	assert.NotNil(t, application.Tracer.Metrics())
	assert.Equal(t, 4, application.Manager.GetRegistry().Count())
	assert.Equal(t, "127.0.0.1:0", application.Addr())
}

func TestApplication_Routes(t *testing.T) {
	application := newTestApp(t, testConfig(t))

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/health/ready", http.StatusOK},
		{http.MethodGet, "/api/health/live", http.StatusOK},
		{http.MethodGet, "/api/version", http.StatusOK},
		{http.MethodGet, "/api/analyses", http.StatusOK},
		{http.MethodGet, "/api/analyses/unknown", http.StatusNotFound},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodPut, "/api/version", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			application.Router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestApplication_AnalysisEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	application := newTestApp(t, cfg)

	body, contentType := uploadBody(t)
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	application.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.InDelta(t, 17.5, summary["overall_mape"], 1e-9)
	id := summary["id"].(string)

	req = httptest.NewRequest(http.MethodGet, "/api/analyses/"+id+"/export?format=csv", nil)
	w = httptest.NewRecorder()
	application.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Timestamp,GroupId,Forecast")

	entries, err := os.ReadDir(cfg.Analysis.ExportDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	application.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "analysis_runs_total")
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestApplication_UploadTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.MaxUploadBytes = 32
	application := newTestApp(t, cfg)

	body, contentType := uploadBody(t)
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	application.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RPS = 0.001
	cfg.RateLimit.Burst = 1
	application := newTestApp(t, cfg)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health/live", nil)
		w := httptest.NewRecorder()
		application.Router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestApplication_StartStop(t *testing.T) {
	application := newTestApp(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, application.Start(ctx, cancel))

	resp, err := http.Get("http://" + application.Addr() + "/api/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, application.Stop(context.Background()))

	_, err = http.Get("http://" + application.Addr() + "/api/health/live")
	assert.Error(t, err)
}
