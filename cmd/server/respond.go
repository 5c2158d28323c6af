package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/export"
	"github.com/Simplici0/scopeworks/internal/pricing"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps service errors to status codes. Anything unrecognised is logged and
// reported as a 500 without detail.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, errBadRequest), errors.Is(err, export.ErrUnsupported):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrInvalidConfiguration):
		writeErrorMessage(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// parseVersionNumber reads an optional version query value. Empty means the current
// version and is returned as 0.
func parseVersionNumber(raw, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a version number", errBadRequest, field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%w: %s must be greater than or equal to 0", errBadRequest, field)
	}
	return value, nil
}

func parsePositiveInt(raw, field string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be numeric", errBadRequest, field)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%w: %s must be greater than 0", errBadRequest, field)
	}
	return value, nil
}

func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
