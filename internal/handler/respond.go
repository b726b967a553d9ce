package handler

import (
	"encoding/json"
	"net/http"
)

// Response envelope shared by every route: {"status":"ok", ...} on success,
// {"status":"error","message":...} on failure. Validation failures carry the
// full violation list; internal errors never leak storage detail.

type errorResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	Code    string   `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}

func writeValidationErrors(w http.ResponseWriter, violations []string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Status:  "error",
		Message: "Validation failed.",
		Errors:  violations,
	})
}
