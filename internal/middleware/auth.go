package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hospital-api/internal/model"
)

type tokenVerifier interface {
	Verify(token string) (model.AuthClaims, error)
}

type sessionValidator interface {
	Validate(ctx context.Context, id string) (model.Session, error)
	Touch(ctx context.Context, id string) error
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	tokens   tokenVerifier
	sessions sessionValidator
}

func NewAuthMiddleware(tokens tokenVerifier, sessions sessionValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions}
}

// RequireAuth answers 401 for a missing header or a dead session, 403 for a
// token that fails verification and 500 when the session store fails.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required")
			return
		}

		token := strings.TrimSpace(header[7:])
		if token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required")
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Invalid or expired token")
			return
		}

		if _, err := m.sessions.Validate(r.Context(), claims.SessionID); err != nil {
			if errors.Is(err, model.ErrSessionNotFound) {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Session expired or invalid")
				return
			}
			slog.ErrorContext(r.Context(), "session lookup failed",
				"request_id", RequestIDFromContext(r.Context()), "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			return
		}

		if err := m.sessions.Touch(r.Context(), claims.SessionID); err != nil {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireStaffRoles must run after RequireAuth.
func (m *AuthMiddleware) RequireStaffRoles(allowed ...model.StaffRole) func(http.Handler) http.Handler {
	roleSet := make(map[model.StaffRole]struct{}, len(allowed))
	for _, role := range allowed {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			if _, exists := roleSet[claims.StaffRole]; !exists {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(model.AuthClaims)
	return claims, ok
}

// WithClaims stores claims the way RequireAuth does.
func WithClaims(ctx context.Context, claims model.AuthClaims) context.Context {
	return context.WithValue(ctx, authClaimsContextKey, claims)
}
