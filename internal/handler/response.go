// Package handler contains the HTTP layer: request parsing, the response
// envelope, and the translation of domain errors into status codes. No
// authorization decision lives here — handlers hand the principal to a
// service and write whatever comes back.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mypeople/backend/internal/apperror"
)

// Envelope is the uniform success shape of the API: a short human-readable
// message plus the payload. Clients always find their object under "data".
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the uniform error shape, mirroring the envelope with the
// payload replaced by a machine-readable error type.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON sends a JSON body with the given status. Headers and status must
// go out before the first body byte, so the order here is fixed.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			// Headers are already gone; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeEnvelope sends a success response in the standard envelope.
func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{Message: message, Data: data})
}

// writeError maps a domain error onto the HTTP status grid. This is the only
// place the taxonomy meets status codes; services never see HTTP.
//
// Validation and relationship violations both surface as 422: the request was
// well-formed JSON but semantically unprocessable, which matches how the API
// has always reported bad field values. 400 is reserved for bodies that don't
// parse at all.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
			w.Header().Set("WWW-Authenticate", "Bearer")
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusUnprocessableEntity
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrInvalidRelationship):
			status = http.StatusUnprocessableEntity
			errorType = "invalid_relationship"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{Error: errorType, Message: appErr.Message})
		return
	}

	// Unknown errors stay opaque: raw messages can carry SQL or file paths.
	slog.Error("unhandled error reached the HTTP layer", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}

// decodeBody parses a JSON request body into dst. A body that doesn't parse
// is a 400-class failure, reported as a bare validation message on the field
// level the client can act on.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "malformed_body",
			Message: "request body must be valid JSON",
		})
		return false
	}
	return true
}
