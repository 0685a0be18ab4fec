package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/benefitsops/commission-processor/internal/fileparser"
	"github.com/benefitsops/commission-processor/internal/transform"
)

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}

// writeError writes a JSON error response and logs it server-side.
func writeError(w http.ResponseWriter, status int, message string) {
	slog.Error("request failed", "status", status, "error", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes. Parse failures
// are the client's fault; anything unrecognized is a server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fileparser.ErrUnsupportedFormat),
		errors.Is(err, fileparser.ErrDecode),
		errors.Is(err, fileparser.ErrMalformedStructure),
		errors.Is(err, transform.ErrUnknownSubReport):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
