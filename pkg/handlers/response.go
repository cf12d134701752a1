package handlers

import (
	"encoding/json"
	"net/http"
)

// apiError is the JSON body returned on any failed request.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON serializes data to the response. Bootstrap payloads carry
// per-user session state, so responses are marked non-cacheable.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// ErrorResponse writes a JSON error body with the given code and message.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, apiError{Error: errorCode, Message: message})
}
