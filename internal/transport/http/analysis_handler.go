package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/Anest2009/Enerlytics/internal/errors"
	"github.com/Anest2009/Enerlytics/internal/infrastructure"
	"github.com/Anest2009/Enerlytics/internal/middleware"
	"github.com/Anest2009/Enerlytics/internal/operations"
	"github.com/Anest2009/Enerlytics/internal/services"
	"github.com/Anest2009/Enerlytics/internal/validation"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// multipartMemory is the part of an upload kept in memory before spilling to disk
const multipartMemory = 8 << 20

// Form field names of POST /api/analyses
const (
	FieldForecast = "forecast"
	FieldActual   = "actual"
	FieldExport   = "export"
)

// exportFormats are the accepted values of the export and format parameters
var exportFormats = []string{string(domain.ExportFormatCSV), string(domain.ExportFormatXLSX)}

// createParams are the non-file fields of an analysis upload
type createParams struct {
	Export       string `json:"export" validate:"omitempty,oneof=csv xlsx"`
	ForecastName string `json:"forecast" validate:"required,filename"`
	ActualName   string `json:"actual" validate:"required,filename"`
}

// AnalysisHandler handles analysis run HTTP requests
type AnalysisHandler struct {
	service      AnalysisService
	validator    *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	files        *validation.FileValidator
	errorHandler *apperrors.ErrorHandler
	uploadDir    string
	logger       *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler. Uploads are staged in
// uploadDir, or the system temp directory when it is empty.
func NewAnalysisHandler(service AnalysisService, v *middleware.ValidationMiddleware, errorHandler *apperrors.ErrorHandler, uploadDir string, logger *slog.Logger) *AnalysisHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apperrors.NewErrorHandler(logger, false)
	}
	if v == nil {
		v = middleware.NewValidationMiddleware(logger, errorHandler, 0)
	}
	return &AnalysisHandler{
		service:      service,
		validator:    v,
		query:        middleware.NewQueryParamValidator(errorHandler),
		files:        validation.NewFileValidator(logger),
		errorHandler: errorHandler,
		uploadDir:    uploadDir,
		logger:       logger.With(slog.String("handler", "analyses")),
	}
}

// Routes returns a chi router for analysis endpoints
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(
		h.validator.LimitBody,
		middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"),
	).Post("/", h.CreateAnalysis)
	r.Get("/", h.ListAnalyses)
	r.Get("/{id}", h.GetAnalysis)
	r.Get("/{id}/summary", h.GetSummary)
	r.Get("/{id}/export", h.ExportAnalysis)
	r.Delete("/{id}", h.DeleteAnalysis)

	return r
}

// CreateAnalysis handles POST /api/analyses. It runs the analysis
// synchronously and answers 201 with the run summary.
func (h *AnalysisHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apperrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	forecast, forecastHeader, err := r.FormFile(FieldForecast)
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.MissingParameterError(FieldForecast))
		return
	}
	defer forecast.Close()

	actual, actualHeader, err := r.FormFile(FieldActual)
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.MissingParameterError(FieldActual))
		return
	}
	defer actual.Close()

	params := createParams{
		Export:       strings.ToLower(strings.TrimSpace(r.FormValue(FieldExport))),
		ForecastName: filepath.Base(forecastHeader.Filename),
		ActualName:   filepath.Base(actualHeader.Filename),
	}
	if err := h.validator.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	for _, name := range []string{params.ForecastName, params.ActualName} {
		if err := h.files.ValidateInputName(name); err != nil {
			h.errorHandler.HandleError(w, r, apperrors.NewWithDetails(
				http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), name))
			return
		}
	}

	forecastPath, err := h.stage(forecast, params.ForecastName)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer os.Remove(forecastPath)

	actualPath, err := h.stage(actual, params.ActualName)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer os.Remove(actualPath)

	infrastructure.AddSpanEvent(ctx, "analysis.upload",
		attribute.String("forecast", params.ForecastName),
		attribute.String("actual", params.ActualName),
		attribute.Int64("forecast_bytes", forecastHeader.Size),
		attribute.Int64("actual_bytes", actualHeader.Size))

	summary, err := h.service.Run(ctx, operations.AnalysisRequest{
		ForecastPath: forecastPath,
		ActualPath:   actualPath,
		ForecastName: params.ForecastName,
		ActualName:   params.ActualName,
		ExportFormat: domain.ExportFormat(params.Export),
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "Analysis created",
		slog.String("run_id", summary.ID),
		slog.Int("total_records", summary.TotalRecords),
		slog.Float64("overall_mape", summary.OverallMAPE))

	w.Header().Set("Location", "/api/analyses/"+summary.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

// stage copies an uploaded part to a temp file keeping its extension, so
// workbooks are still recognized
func (h *AnalysisHandler) stage(src multipart.File, name string) (string, error) {
	if h.uploadDir != "" {
		if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
			return "", apperrors.NewIOError(name, err)
		}
	}

	dst, err := os.CreateTemp(h.uploadDir, "upload-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return "", apperrors.NewIOError(name, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", apperrors.NewIOError(name, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", apperrors.NewIOError(name, err)
	}
	return dst.Name(), nil
}

// ListAnalyses handles GET /api/analyses
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	runs := h.service.List(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"analyses": runs,
		"count":    len(runs),
	})
}

// GetAnalysis handles GET /api/analyses/{id} and returns the full result
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, result)
}

// GetSummary handles GET /api/analyses/{id}/summary
func (h *AnalysisHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, summary)
}

// ExportAnalysis handles GET /api/analyses/{id}/export?format=csv|xlsx and
// downloads the export
func (h *AnalysisHandler) ExportAnalysis(w http.ResponseWriter, r *http.Request) {
	format, ok := h.query.ValidateEnum(w, r, "format", exportFormats, string(domain.ExportFormatCSV))
	if !ok {
		return
	}

	path, err := h.service.Export(r.Context(), chi.URLParam(r, "id"), domain.ExportFormat(format))
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	contentType := "text/csv; charset=utf-8"
	if domain.ExportFormat(format) == domain.ExportFormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// DeleteAnalysis handles DELETE /api/analyses/{id}
func (h *AnalysisHandler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mapServiceError converts service sentinels to API errors
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrAnalysisNotFound):
		return apperrors.ErrAnalysisNotFound
	case errors.Is(err, services.ErrNoResult):
		return apperrors.NewWithDetails(http.StatusConflict, "NO_RESULT", "analysis run has no result", err.Error())
	}
	return err
}
