// Package handlers contains HTTP request handlers for the grievance API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/civicdesk/grievance-server/internal/services"
)

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses. Rejected
// transitions surface the service's message verbatim.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	var statusErr *services.StatusError
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &statusErr):
		respondError(w, http.StatusBadRequest, statusErr.Message)
	case errors.Is(err, services.ErrNotLeafCategory):
		respondError(w, http.StatusBadRequest, "Only leaf categories can be assigned")
	default:
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
