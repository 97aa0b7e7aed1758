package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"watchwise/models"
	"watchwise/services/dashboard"
	"watchwise/services/watchlist"

	"github.com/gorilla/mux"
)

type dashboardSession interface {
	Snapshot() dashboard.Snapshot
	Refresh(ctx context.Context) error
	SetQuery(ctx context.Context, q watchlist.Query) error
	UpdateStatus(ctx context.Context, id string, status models.WatchStatus) error
	Remove(ctx context.Context, id string) error
	Import(ctx context.Context, filename string, size int64, r io.Reader) (models.ImportResult, error)
	ToggleServices(ctx context.Context, toggles []models.ServiceToggle) error
	CheckAvailability(ctx context.Context, id string) (models.ItemAvailability, error)
}

var _ dashboardSession = (*dashboard.Session)(nil)

// DashboardHandler exposes the reconciled session over HTTP.
type DashboardHandler struct {
	Session dashboardSession
}

func NewDashboardHandler(session dashboardSession) *DashboardHandler {
	return &DashboardHandler{Session: session}
}

// Get returns the current dashboard snapshot.
// GET /api/dashboard
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Session.Snapshot())
}

// Refresh reloads every source with the loading indicators shown.
// POST /api/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Refresh(r.Context()); errors.Is(err, dashboard.ErrClosed) {
		writeServiceError(w, err)
		return
	}
	// Load failures are reported per section in the snapshot.
	writeJSON(w, http.StatusOK, h.Session.Snapshot())
}

// SetQuery changes the watchlist sort and type filter.
// PUT /api/watchlist/query
func (h *DashboardHandler) SetQuery(w http.ResponseWriter, r *http.Request) {
	var q watchlist.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := h.Session.SetQuery(r.Context(), q); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.Snapshot())
}

// UpdateStatus changes the watch status of one item.
// PATCH /api/watchlist/{id}
func (h *DashboardHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeJSONError(w, "item id is required", http.StatusBadRequest)
		return
	}
	var body struct {
		Status models.WatchStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := h.Session.UpdateStatus(r.Context(), id, body.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.Snapshot())
}

// Remove deletes one item.
// DELETE /api/watchlist/{id}
func (h *DashboardHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeJSONError(w, "item id is required", http.StatusBadRequest)
		return
	}
	if err := h.Session.Remove(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.Snapshot())
}

// Import forwards an uploaded CSV export to the backend.
// POST /api/watchlist/import
func (h *DashboardHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, watchlist.MaxImportBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSONError(w, "expected multipart upload with a file field", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.Session.Import(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":  result,
		"summary": watchlist.ImportSummary(result),
	})
}

// CheckAvailability forces a fresh availability lookup for one item.
// POST /api/watchlist/{id}/availability
func (h *DashboardHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	state, err := h.Session.CheckAvailability(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// ToggleServices applies one or more service toggles.
// PATCH /api/services
func (h *DashboardHandler) ToggleServices(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Toggle []models.ServiceToggle `json:"toggle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if len(body.Toggle) == 0 {
		writeJSONError(w, "toggle must not be empty", http.StatusBadRequest)
		return
	}
	if err := h.Session.ToggleServices(r.Context(), body.Toggle); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.Snapshot())
}
