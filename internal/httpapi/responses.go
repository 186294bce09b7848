package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// envelope is embedded in every successful response per spec.md §6:
// "All responses include {timestamp, fetch_time_ms}".
type envelope struct {
	Timestamp  time.Time `json:"timestamp"`
	FetchTimeMS int64    `json:"fetch_time_ms"`
}

func newEnvelope(start time.Time) envelope {
	return envelope{Timestamp: time.Now().UTC(), FetchTimeMS: time.Since(start).Milliseconds()}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
