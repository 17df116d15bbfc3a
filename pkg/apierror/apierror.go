package apierror

import (
	"fmt"
	"net/http"
)

// Kind classifies an APIError. Each kind maps to exactly one HTTP status.
type Kind string

const (
	KindValidation    Kind = "VALIDATION_ERROR"
	KindNotFound      Kind = "NOT_FOUND"
	KindConflict      Kind = "CONFLICT"
	KindUnauthorized  Kind = "UNAUTHORIZED"
	KindForbidden     Kind = "FORBIDDEN"
	KindAccountLocked Kind = "ACCOUNT_LOCKED"
	KindInternal      Kind = "INTERNAL_ERROR"
)

func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden, KindAccountLocked:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type APIError struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

func New(kind Kind, message string, details string) *APIError {
	return &APIError{Kind: kind, Message: message, Details: details}
}

func Validation(message string, details string) *APIError {
	return New(KindValidation, message, details)
}

func NotFound(message string, details string) *APIError {
	return New(KindNotFound, message, details)
}

func Conflict(message string, details string) *APIError {
	return New(KindConflict, message, details)
}

func Unauthorized(message string) *APIError {
	return New(KindUnauthorized, message, "")
}

func Forbidden(message string) *APIError {
	return New(KindForbidden, message, "")
}

func MissingField(field string) *APIError {
	return New(KindValidation, "missing required field: "+field, field)
}
