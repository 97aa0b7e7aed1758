package api

import (
	"net/http"

	"watchwise/handlers"

	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Register mounts API endpoints onto the provided router. A nil tasks handler
// leaves the resync endpoints out.
func Register(r *mux.Router, dashboardHandler *handlers.DashboardHandler, tasksHandler *handlers.ScheduledTasksHandler) {
	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	api.HandleFunc("/dashboard", dashboardHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/refresh", dashboardHandler.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/refresh", handleOptions).Methods(http.MethodOptions)

	// Static paths before {id} so they are not captured as ids.
	api.HandleFunc("/watchlist/query", dashboardHandler.SetQuery).Methods(http.MethodPut)
	api.HandleFunc("/watchlist/query", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/watchlist/import", dashboardHandler.Import).Methods(http.MethodPost)
	api.HandleFunc("/watchlist/import", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/watchlist/{id}", dashboardHandler.UpdateStatus).Methods(http.MethodPatch)
	api.HandleFunc("/watchlist/{id}", dashboardHandler.Remove).Methods(http.MethodDelete)
	api.HandleFunc("/watchlist/{id}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/watchlist/{id}/availability", dashboardHandler.CheckAvailability).Methods(http.MethodPost)
	api.HandleFunc("/watchlist/{id}/availability", handleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/services", dashboardHandler.ToggleServices).Methods(http.MethodPatch)
	api.HandleFunc("/services", handleOptions).Methods(http.MethodOptions)

	if tasksHandler != nil {
		api.HandleFunc("/resync", tasksHandler.Status).Methods(http.MethodGet)
		api.HandleFunc("/resync", tasksHandler.RunNow).Methods(http.MethodPost)
		api.HandleFunc("/resync", handleOptions).Methods(http.MethodOptions)
	}
}
