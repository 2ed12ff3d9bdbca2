package errors

import (
	"encoding/json"
	"net/http"
)

// APIError is the failure envelope every endpoint returns.
type APIError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	Write(w, status, APIError{Success: false, Error: message})
}
