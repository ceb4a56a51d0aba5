package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON error shape shared with the API handlers.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorBody{
		Error:   http.StatusText(status),
		Message: message,
	})
}
