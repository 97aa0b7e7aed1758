package handlers

import (
	"errors"
	"net/http"

	"watchwise/services/scheduler"
)

type resyncScheduler interface {
	Status() scheduler.Status
	RunNow() error
}

var _ resyncScheduler = (*scheduler.Service)(nil)

// ScheduledTasksHandler exposes the background resync task.
type ScheduledTasksHandler struct {
	schedulerService resyncScheduler
}

// NewScheduledTasksHandler creates a new scheduled tasks handler
func NewScheduledTasksHandler(schedulerService resyncScheduler) *ScheduledTasksHandler {
	return &ScheduledTasksHandler{schedulerService: schedulerService}
}

// Status returns the resync task status
// GET /api/resync
func (h *ScheduledTasksHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.schedulerService.Status())
}

// RunNow triggers an immediate silent resync
// POST /api/resync
func (h *ScheduledTasksHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	if err := h.schedulerService.RunNow(); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, scheduler.ErrAlreadyRunning):
			status = http.StatusConflict
		case errors.Is(err, scheduler.ErrNotStarted):
			status = http.StatusServiceUnavailable
		}
		writeJSONError(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Resync started"})
}
