// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/quartermasterhq/quartermaster/internal/gateway"
	"github.com/quartermasterhq/quartermaster/internal/logging"
	"github.com/quartermasterhq/quartermaster/internal/store"
	"github.com/quartermasterhq/quartermaster/internal/validation"
)

// errorResponse is the wire shape of every error the API returns.
type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain errors onto HTTP statuses. Validation
// failures carry per-field details; everything unrecognized is a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	var terr *gateway.TransportError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "VALIDATION_ERROR",
			Message: verr.Error(),
			Details: verr.Fields(),
		})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "NOT_FOUND",
			Message: err.Error(),
		})
	case errors.Is(err, store.ErrAlreadyCheckedOut), errors.Is(err, store.ErrNotCheckedOut):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   "CONFLICT",
			Message: err.Error(),
		})
	case errors.As(err, &terr):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:   "BACKEND_UNAVAILABLE",
			Message: "the backend is unreachable and no cached data is available",
		})
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Unhandled API error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "INTERNAL",
			Message: "internal server error",
		})
	}
}

func decodeBody(r *http.Request, dest any) error {
	defer r.Body.Close() //nolint:errcheck
	return json.NewDecoder(r.Body).Decode(dest)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:   "BAD_REQUEST",
		Message: message,
	})
}
