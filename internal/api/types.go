package api

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the envelope for every non-2xx JSON body.
type errorResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Errors  []string `json:"errors,omitempty"` // validation error lists
}

// importRequest is the body of POST /api/users/import.
type importRequest struct {
	CSV      string `json:"csv"`
	Password string `json:"password"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// importAccepted is the 202 body for an accepted import.
type importAccepted struct {
	JobID string `json:"job_id"`
	Total int    `json:"total"`
}

// batchDeleteRequest is the body of POST /api/users/batch-delete.
type batchDeleteRequest struct {
	Usernames []string `json:"usernames"`
}

// batchPasswordRequest is the body of POST /api/users/batch-password.
type batchPasswordRequest struct {
	Usernames []string `json:"usernames"`
	Password  string   `json:"password"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, data json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorDetails(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}
