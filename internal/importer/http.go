package importer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"registry-service/internal/httputil"
	"registry-service/internal/metrics"
	"registry-service/internal/student"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service  *Service
	maxBytes int64
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(service *Service, maxBytes int64, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/upload", h.Upload)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "missing or oversized upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "importing spreadsheet", "filename", header.Filename, "size", header.Size)

	result, err := h.service.Import(r.Context(), file)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordImportCompleted(r.Context())
	h.metrics.RecordImportRowsFailed(r.Context(), int64(result.Failed))

	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "import completed",
		"recordsProcessed": result.Processed,
		"recordsFailed":    result.Failed,
		"newColumnsAdded":  result.NewColumns,
	})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnparseable),
		errors.Is(err, ErrNoSheets),
		errors.Is(err, ErrNoDataRows),
		errors.Is(err, ErrBadHeader),
		errors.Is(err, student.ErrUnknownAttribute):
		h.logger.InfoContext(r.Context(), "import rejected", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httputil.RespondWithError(w, http.StatusServiceUnavailable, "service unavailable, retry later")
	default:
		h.logger.ErrorContext(r.Context(), "import failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
