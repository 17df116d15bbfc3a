package handler

import (
	"context"
	"net/http"

	"hospital-api/internal/middleware"
	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

type authService interface {
	Register(ctx context.Context, req model.RegisterRequest, client model.ClientInfo) (model.RegisterResult, error)
	Login(ctx context.Context, req model.LoginRequest, client model.ClientInfo) (model.LoginResult, error)
	Logout(ctx context.Context, claims model.AuthClaims, client model.ClientInfo) error
	Me(ctx context.Context, userID int64) (model.Profile, error)
	ChangePassword(ctx context.Context, claims model.AuthClaims, req model.ChangePasswordRequest, client model.ClientInfo) error
	ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest, client model.ClientInfo) (model.ForgotPasswordResult, string, error)
	ResetPassword(ctx context.Context, req model.ResetPasswordRequest, client model.ClientInfo) error
}

type AuthHandler struct {
	service authService
}

func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.Register(r.Context(), payload, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusCreated, "User registered successfully", result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.Login(r.Context(), payload, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Login successful", result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.Logout(r.Context(), claims, clientInfo(r)); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.Unauthorized("Authentication required"))
		return
	}

	profile, err := h.service.Me(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.Unauthorized("Authentication required"))
		return
	}

	var payload model.ChangePasswordRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims, payload, clientInfo(r)); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Password changed successfully", nil)
}

// ForgotPassword answers known and unknown usernames identically.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload model.ForgotPasswordRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	result, message, err := h.service.ForgotPassword(r.Context(), payload, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var data any
	if result.Debug != nil {
		data = result
	}
	writeMessage(w, http.StatusOK, message, data)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload model.ResetPasswordRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), payload, clientInfo(r)); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Password has been reset successfully", nil)
}
