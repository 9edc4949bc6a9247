package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Harshitk-cp/pyramid/internal/api/middleware"
	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/Harshitk-cp/pyramid/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// writeJSON encodes before committing the status so an unencodable
// value becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service and domain errors to HTTP responses.
// Anything unrecognised is logged and reported as a 500 with fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPracticeNameMissing),
		errors.Is(err, service.ErrInvalidTier),
		errors.Is(err, service.ErrSelfContradiction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPracticeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPracticeConflict),
		errors.Is(err, service.ErrCascadeRunning):
		writeError(w, http.StatusConflict, err.Error())
	default:
		middleware.LoggerFromContext(r.Context()).Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// practiceName reads the {name} path segment. Names may contain spaces
// and so arrive percent-encoded.
func practiceName(r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	// chi matches on RawPath when set, leaving the segment escaped.
	if r.URL.RawPath != "" {
		var err error
		if name, err = url.PathUnescape(name); err != nil {
			return "", false
		}
	}
	if name == "" {
		return "", false
	}
	return name, true
}

// queryLimit parses ?limit=, returning 0 when absent so the service default applies.
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return n, nil
}
