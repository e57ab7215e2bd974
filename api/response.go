package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Stable error codes returned in the "error" field.
const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeNotFound       = "NOT_FOUND"
	codeDuplicate      = "DUPLICATE"
	codeAIUnavailable  = "AI_UNAVAILABLE"
	codeInternal       = "INTERNAL"
)

// writeJSON writes a JSON response with the given status code.
// Note: if encoding fails after WriteHeader, the status code is already on
// the wire; the error is logged and the response stays as-is.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
