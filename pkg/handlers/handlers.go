// Package handlers provides JSON request and response helpers for HTTP handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// ErrInvalidBody indicates a request body that is not a single valid JSON document.
var ErrInvalidBody = errors.New("invalid request body")

// RespondJSON writes data as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes {"error": message}. Server errors log at ERROR,
// client errors at WARN.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}

// DecodeJSON reads one JSON document into dst, rejecting unknown fields and
// trailing data. Oversized bodies report http.StatusRequestEntityTooLarge.
func DecodeJSON(r *http.Request, dst any) (int, error) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("%w: exceeds %d bytes", ErrInvalidBody, maxErr.Limit)
		}
		return http.StatusBadRequest, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return http.StatusBadRequest, fmt.Errorf("%w: trailing data", ErrInvalidBody)
	}
	return http.StatusOK, nil
}
