package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"hospital-api/internal/middleware"
	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

const maxBodyBytes = 1 << 20

var exposeErrorDetail atomic.Bool

// ExposeErrorDetail makes writeError include the text of unexpected errors.
// Only development mode turns it on.
func ExposeErrorDetail(on bool) {
	exposeErrorDetail.Store(on)
}

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	writeJSON(w, status, model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeMessage(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, model.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func writeJSON(w http.ResponseWriter, status int, body model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError is the only place an error becomes an HTTP status. Anything
// that is not an *apierror.APIError is answered as INTERNAL_ERROR.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    string(apierror.KindInternal),
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus()
		body.Code = string(apiErr.Kind)
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else {
		slog.ErrorContext(r.Context(), "unhandled error",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error())
		if exposeErrorDetail.Load() {
			body.Details = err.Error()
		}
	}

	writeJSON(w, status, model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil {
		return nil
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return apierror.Validation("request body is required", "")
	case errors.As(err, &maxErr):
		return apierror.Validation("request body is too large", "")
	case errors.Is(err, model.ErrInvalidInput):
		return apierror.Validation(err.Error(), "")
	default:
		return apierror.Validation("invalid JSON body", "")
	}
}

func parseID(r *http.Request, param string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apierror.Validation("invalid "+param, param)
	}
	return id, nil
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func parseListQuery(r *http.Request) model.ListQuery {
	query := r.URL.Query()
	return model.ListQuery{
		Page:  parseIntOrDefault(query.Get("page"), 1),
		Limit: parseIntOrDefault(query.Get("limit"), 50),
	}
}

func actorFromRequest(r *http.Request) model.Actor {
	actor := model.Actor{IP: middleware.ClientIP(r)}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		actor.UserID = claims.UserID
	}
	return actor
}

func clientInfo(r *http.Request) model.ClientInfo {
	return model.ClientInfo{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
