package workstatus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

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
	router.Get("/work-status", h.ListWorkItems)
	router.Post("/work-status", h.CreateWorkItem)
	router.Put("/work-status/{id}", h.UpdateWorkItem)
}

func (h *Handler) ListWorkItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"workStatus": items,
	})
}

func (h *Handler) CreateWorkItem(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "task and deadline are required")
		return
	}

	deadline, _ := time.Parse(time.DateOnly, req.Deadline)
	item := &WorkItem{
		Task:     req.Task,
		Status:   Status(req.Status),
		Deadline: deadline,
	}
	if req.StartDate != "" {
		start, _ := time.Parse(time.DateOnly, req.StartDate)
		item.StartDate = &start
	}

	h.logger.InfoContext(r.Context(), "creating work item", "task", req.Task)
	created, err := h.service.Create(r.Context(), item)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordWorkItemCreated(r.Context())

	httputil.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "work item created successfully",
		"id":      created.ID,
	})
}

func (h *Handler) UpdateWorkItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid work item ID")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "status must be pending, started or completed")
		return
	}

	var completedDate *time.Time
	if req.CompletedDate != "" {
		completed, _ := time.Parse(time.DateOnly, req.CompletedDate)
		completedDate = &completed
	}

	h.logger.InfoContext(r.Context(), "updating work item", "id", id, "status", req.Status)
	if err := h.service.Update(r.Context(), id, Status(req.Status), completedDate); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordWorkItemUpdated(r.Context())

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "work item updated successfully",
	})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrWorkItemNotFound):
		h.logger.InfoContext(r.Context(), "work item not found")
		httputil.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput):
		h.logger.InfoContext(r.Context(), "invalid work item input")
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httputil.RespondWithError(w, http.StatusServiceUnavailable, "service unavailable, retry later")
	default:
		h.logger.ErrorContext(r.Context(), "work item operation failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
