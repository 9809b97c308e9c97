package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// ErrorResponse is the uniform error envelope every failing endpoint
// returns. Timestamp is RFC 3339 in UTC.
type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// WriteError writes the error envelope for the given status code. The
// Error field carries the canonical status text, the message the
// human-readable detail.
func WriteError(w http.ResponseWriter, r *http.Request, code int, message string) {
	WriteJSON(w, code, ErrorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    code,
		Error:     http.StatusText(code),
		Message:   message,
		Path:      r.URL.Path,
	})
}
