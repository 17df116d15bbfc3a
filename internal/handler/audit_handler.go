package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

type auditQueryService interface {
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

type AuditHandler struct {
	service auditQueryService
}

func NewAuditHandler(service auditQueryService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := model.AuditQuery{
		ListQuery: parseListQuery(r),
		Action:    strings.TrimSpace(query.Get("action")),
		Table:     strings.TrimSpace(query.Get("table")),
	}

	if raw := strings.TrimSpace(query.Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, apierror.Validation("user_id must be an integer", "user_id"))
			return
		}
		filter.UserID = &id
	}

	var err error
	if filter.From, err = parseTimeParam(query.Get("from"), "from"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.To, err = parseTimeParam(query.Get("to"), "to"); err != nil {
		writeError(w, r, err)
		return
	}

	items, meta, err := h.service.Query(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.AuditEntry{}
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, &meta)
}

// parseTimeParam accepts RFC3339 timestamps and plain dates.
func parseTimeParam(raw string, name string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			parsed = parsed.UTC()
			return &parsed, nil
		}
	}
	return nil, apierror.Validation(name+" must be an RFC3339 timestamp or a YYYY-MM-DD date", name)
}
