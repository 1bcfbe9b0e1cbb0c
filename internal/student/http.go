package student

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"registry-service/internal/httputil"
	"registry-service/internal/metrics"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/students", h.FindStudents)
	router.Post("/students", h.UpsertStudent)
}

func (h *Handler) FindStudents(w http.ResponseWriter, r *http.Request) {
	filters := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}

	records, err := h.service.Find(r.Context(), filters)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordStudentsSearched(r.Context())

	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data":  records,
		"count": len(records),
	})
}

func (h *Handler) UpsertStudent(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := make(map[string]string, len(body))
	for key, value := range body {
		fields[key] = stringify(value)
	}

	h.logger.InfoContext(r.Context(), "upserting student", "studentId", fields["studentId"])
	result, err := h.service.Upsert(r.Context(), fields)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordStudentUpserted(r.Context())

	status := http.StatusOK
	if result == ResultCreated {
		status = http.StatusCreated
	}
	httputil.RespondWithJSON(w, status, map[string]string{
		"message":   "student saved successfully",
		"studentId": fields["studentId"],
		"result":    string(result),
	})
}

// stringify flattens JSON values to the text shape the store writes.
// Nulls become empty strings, which the upsert excludes from the write.
func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, _ := json.Marshal(v)
		return string(raw)
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissingStudentID), errors.Is(err, ErrUnknownAttribute):
		h.logger.InfoContext(r.Context(), "student request rejected", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httputil.RespondWithError(w, http.StatusServiceUnavailable, "service unavailable, retry later")
	default:
		h.logger.ErrorContext(r.Context(), "student operation failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
