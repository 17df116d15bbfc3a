package handler

import (
	"context"
	"net/http"

	"hospital-api/internal/model"
)

type resourceService[T any, In any] interface {
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, actor model.Actor, in In) (T, error)
	Update(ctx context.Context, actor model.Actor, id int64, in In) (T, error)
	Delete(ctx context.Context, actor model.Actor, id int64) error
}

// ResourceHandler serves the CRUD routes of one entity. T is the stored
// record and In its create/update payload.
type ResourceHandler[T any, In any] struct {
	service resourceService[T, In]
	label   string
}

// NewResourceHandler builds the handler; label names the entity in
// response messages, e.g. "Patient".
func NewResourceHandler[T any, In any](service resourceService[T, In], label string) *ResourceHandler[T, In] {
	return &ResourceHandler[T, In]{service: service, label: label}
}

func (h *ResourceHandler[T, In]) List(w http.ResponseWriter, r *http.Request) {
	lister, ok := h.service.(interface {
		List(ctx context.Context, page model.ListQuery) ([]T, model.Meta, error)
	})
	if !ok {
		MethodNotAllowed(w, r)
		return
	}

	items, meta, err := lister.List(r.Context(), parseListQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}

	writeSuccess(w, http.StatusOK, items, &meta)
}

// ListByVisit serves the /visits/{id}/... sub-collections, where {id} is
// the visit.
func (h *ResourceHandler[T, In]) ListByVisit(w http.ResponseWriter, r *http.Request) {
	lister, ok := h.service.(interface {
		ListByVisit(ctx context.Context, visitID int64, page model.ListQuery) ([]T, model.Meta, error)
	})
	if !ok {
		MethodNotAllowed(w, r)
		return
	}

	visitID, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, meta, err := lister.ListByVisit(r.Context(), visitID, parseListQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}

	writeSuccess(w, http.StatusOK, items, &meta)
}

func (h *ResourceHandler[T, In]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, item, nil)
}

func (h *ResourceHandler[T, In]) Create(w http.ResponseWriter, r *http.Request) {
	var payload In
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.service.Create(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusCreated, h.label+" created successfully", created)
}

func (h *ResourceHandler[T, In]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload In
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.service.Update(r.Context(), actorFromRequest(r), id, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, h.label+" updated successfully", updated)
}

func (h *ResourceHandler[T, In]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), actorFromRequest(r), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, h.label+" deleted successfully", nil)
}
