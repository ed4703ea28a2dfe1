package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/assetvault/pkg/assets"
)

// envelope is the standard API response shape.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

// respondDomainError maps taxonomy errors to HTTP statuses. Unrecognized
// errors read as a backend failure so internals never leak to clients.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assets.ErrValidation),
		errors.Is(err, assets.ErrInvalidType),
		errors.Is(err, assets.ErrInvalidVisibility),
		errors.Is(err, assets.ErrTooManyFiles):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, assets.ErrNotFound):
		respondError(w, http.StatusNotFound, "asset not found")
	case errors.Is(err, assets.ErrAccessDenied):
		respondError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, assets.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusBadGateway, "storage backend unavailable")
	}
}
