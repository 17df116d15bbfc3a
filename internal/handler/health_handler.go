package handler

import (
	"context"
	"net/http"
	"time"

	"hospital-api/internal/model"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db healthChecker
}

func NewHealthHandler(db healthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, model.APIResponse{
			Success: false,
			Data:    map[string]string{"status": "unavailable"},
			Error:   &model.APIError{Code: "SERVICE_UNAVAILABLE", Message: "Database is unreachable"},
		})
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, nil)
}

// NotFound answers routes that match nothing.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "ROUTE_NOT_FOUND",
			Message: "Route " + r.Method + " " + r.URL.Path + " not found",
		},
	})
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "METHOD_NOT_ALLOWED",
			Message: "Method " + r.Method + " not allowed on " + r.URL.Path,
		},
	})
}
