package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the REST envelope so clients see one error shape whether
// a request was rejected here or by a handler.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: message}) //nolint:errcheck
}
