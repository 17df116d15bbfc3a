package middleware

import (
	"encoding/json"
	"net/http"

	"hospital-api/internal/model"
)

// writeError answers with the API error envelope. Middleware cannot reach
// the handler package, so it carries its own copy of the writer.
func writeError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
