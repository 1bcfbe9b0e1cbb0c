package schema

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"registry-service/internal/httputil"
	"registry-service/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/columns", h.ListColumns)
	router.Post("/columns", h.AddColumn)
	router.Delete("/columns/{columnName}", h.RemoveColumn)
}

func (h *Handler) ListColumns(w http.ResponseWriter, r *http.Request) {
	columns, err := h.service.ListColumns(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"columns": columns,
	})
}

func (h *Handler) AddColumn(w http.ResponseWriter, r *http.Request) {
	var req AddColumnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "columnName is required")
		return
	}

	h.logger.InfoContext(r.Context(), "registering column", "column", req.ColumnName)
	def, err := h.service.AddColumn(r.Context(), req.ColumnName)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordColumnAdded(r.Context())

	httputil.RespondWithJSON(w, http.StatusCreated, map[string]string{
		"message":    "column added successfully",
		"columnName": def.ColumnName,
	})
}

func (h *Handler) RemoveColumn(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "columnName")

	h.logger.InfoContext(r.Context(), "removing column", "column", name)
	if err := h.service.RemoveColumn(r.Context(), name); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordColumnRemoved(r.Context())

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "column removed successfully",
	})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrColumnExists), errors.Is(err, ErrBaseColumn), errors.Is(err, ErrInvalidName):
		h.logger.InfoContext(r.Context(), "column request rejected", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrColumnNotFound):
		h.logger.InfoContext(r.Context(), "column not found")
		httputil.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httputil.RespondWithError(w, http.StatusServiceUnavailable, "service unavailable, retry later")
	default:
		h.logger.ErrorContext(r.Context(), "column operation failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
