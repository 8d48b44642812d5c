package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the uniform error payload every handler returns:
// {"error": "<message>"}.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSONError writes the standard error payload with the given status.
func JSONError(w http.ResponseWriter, status int, message string) {
	_ = JSONWrite(w, status, ErrorBody{Error: message})
}

// JSONWrite encodes v as the JSON response body. A zero status defers to
// the implicit 200 from the first body write.
func JSONWrite(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	return json.NewEncoder(w).Encode(v)
}
