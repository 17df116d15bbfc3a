package handler

import (
	"context"
	"net/http"

	"hospital-api/internal/model"
)

type userAdminService interface {
	List(ctx context.Context, page model.ListQuery) ([]model.UserAccount, model.Meta, error)
	Get(ctx context.Context, id int64) (model.UserAccount, error)
	Update(ctx context.Context, actor model.Actor, id int64, req model.UpdateUserRequest) (model.UserAccount, error)
}

type UserHandler struct {
	service userAdminService
}

func NewUserHandler(service userAdminService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, meta, err := h.service.List(r.Context(), parseListQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.UserAccount{}
	}

	writeSuccess(w, http.StatusOK, users, &meta)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req model.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.Update(r.Context(), actorFromRequest(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "User updated successfully", user)
}
