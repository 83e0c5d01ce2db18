// Package restapi implements the controller's HTTP surface: the
// /api/sessions resource described in full by the external-interfaces
// section of the design, plus the unauthenticated health endpoint.
package restapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/session"
)

// errorResponse is the exact wire shape REST errors use: {"error": "<message>"}.
type errorResponse struct {
	Error string `json:"error"`
}

// respondError writes a JSON error body with the given status code.
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// respondJSON writes v as a JSON body with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForServiceError maps a session package sentinel error to the HTTP
// status code the §6 table requires.
func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, session.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidArgument),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes the appropriate status code and a
// {"error": ...} body for err.
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusForServiceError(err), err.Error())
}
