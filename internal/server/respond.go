package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"audiosurv/internal/alerts"
	"audiosurv/internal/api"
	"audiosurv/internal/logging"
)

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}

func writeError(logger *slog.Logger, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "request failed", "api_error", logging.Error(err))
	}
	writeJSON(logger, w, status, api.ErrorResponse{Error: alerts.Message(err)})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, alerts.ErrDeletionRejected):
		return http.StatusConflict
	case errors.Is(err, alerts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, alerts.ErrValidation):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, alerts.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, errUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errUnavailable = errors.New("not available on this server")
