package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"watchwise/internal/backend"
	"watchwise/services/dashboard"
	"watchwise/services/streaming"
	"watchwise/services/watchlist"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service and backend errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, watchlist.ErrItemNotFound), errors.Is(err, streaming.ErrServiceNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, watchlist.ErrInvalidStatus),
		errors.Is(err, watchlist.ErrInvalidSort),
		errors.Is(err, watchlist.ErrInvalidType),
		errors.Is(err, watchlist.ErrImportNotCSV):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, watchlist.ErrImportTooLarge):
		writeJSONError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, dashboard.ErrClosed):
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		writeJSONError(w, backend.Message(err, "Backend request failed.", "Backend unavailable. Please retry."), http.StatusBadGateway)
	}
}
