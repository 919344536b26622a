package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the wire shape for every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the human-readable message plus optional per-field
// validation details.
type ErrorDetail struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, ErrorBody{Error: ErrorDetail{Message: message}})
}

// ValidationErrorResponse writes a 400 with per-field details.
func ValidationErrorResponse(w http.ResponseWriter, details map[string]string) error {
	return WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: ErrorDetail{
		Message: "Validation error",
		Details: details,
	}})
}
