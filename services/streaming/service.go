package streaming

import (
	"context"
	"errors"
	"log"
	"sync"

	"watchwise/internal/backend"
	"watchwise/internal/reconcile"
	"watchwise/models"
)

const (
	msgLoadFailed   = "Failed to load your services."
	msgLoadRetry    = "Unable to load your services. Please retry."
	msgToggleFailed = "Failed to update your services."
	msgToggleRetry  = "Unable to update your services. Please retry."
)

var ErrServiceNotFound = errors.New("streaming service not found")

// Backend is the subset of the backend API the service store uses.
type Backend interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	ToggleServices(ctx context.Context, toggles []models.ServiceToggle) error
}

// LoadOptions tweaks a single Load call.
type LoadOptions struct {
	Silent bool
}

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	Services    []models.Service `json:"services"`
	Loading     bool             `json:"loading"`
	Error       string           `json:"error,omitempty"`
	ActionError string           `json:"action_error,omitempty"`
	Version     uint64           `json:"-"`
}

// Service mirrors the user's connected streaming services.
type Service struct {
	mu  sync.RWMutex
	api Backend

	services  []models.Service
	loading   bool
	loadErr   string
	actionErr string
	version   uint64

	loadSeq    uint64
	cancelLoad context.CancelFunc

	toggleSeq map[string]uint64
}

// NewService creates a service store backed by api.
func NewService(api Backend) *Service {
	return &Service{
		api:       api,
		services:  []models.Service{},
		toggleSeq: make(map[string]uint64),
	}
}

// Load fetches the services and replaces the local copy. Cancelled or
// superseded loads leave state untouched.
func (s *Service) Load(ctx context.Context, opts LoadOptions) error {
	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.loadSeq++
	seq := s.loadSeq
	s.cancelLoad = cancel
	prevLoading, prevErr := s.loading, s.loadErr
	if !opts.Silent {
		s.loading = true
		s.loadErr = ""
		s.version++
	}
	s.mu.Unlock()

	services, err := s.api.ListServices(loadCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	current := seq == s.loadSeq
	if current {
		s.cancelLoad = nil
	}
	if loadCtx.Err() != nil || backend.IsCanceled(err) {
		if current && !opts.Silent {
			s.loading, s.loadErr = prevLoading, prevErr
			s.version++
		}
		return nil
	}
	if !current {
		return nil
	}

	if !opts.Silent {
		s.loading = false
	}
	if err != nil {
		s.loadErr = backend.Message(err, msgLoadFailed, msgLoadRetry)
		if !opts.Silent {
			s.services = []models.Service{}
		}
		s.version++
		log.Printf("[streaming] load failed: %v", err)
		return err
	}

	s.services = s.applyPendingLocked(services)
	s.loadErr = ""
	s.version++
	return nil
}

// Cancel tears down the in-flight load, if any.
func (s *Service) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
}

// Toggle flips a service locally and then on the backend. A failed toggle
// keeps the local flip; only the newest toggle of a code reports errors.
func (s *Service) Toggle(ctx context.Context, code string, active bool) error {
	code = reconcile.NormalizeCode(code)

	s.mu.Lock()
	idx := s.indexLocked(code)
	if idx < 0 {
		s.mu.Unlock()
		return ErrServiceNotFound
	}
	s.services[idx].Active = active
	s.toggleSeq[code]++
	seq := s.toggleSeq[code]
	s.actionErr = ""
	s.version++
	s.mu.Unlock()

	err := s.api.ToggleServices(ctx, []models.ServiceToggle{{Code: code, Active: active}})

	s.mu.Lock()
	defer s.mu.Unlock()
	latest := s.toggleSeq[code] == seq
	if latest {
		delete(s.toggleSeq, code)
	}
	if err == nil || backend.IsCanceled(err) {
		return nil
	}
	log.Printf("[streaming] toggle %s=%v failed: %v", code, active, err)
	if latest {
		s.actionErr = backend.Message(err, msgToggleFailed, msgToggleRetry)
		s.version++
	}
	return err
}

// Services returns a copy of all services.
func (s *Service) Services() []models.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneServices(s.services)
}

// Active returns the services the user currently has switched on.
func (s *Service) Active() []models.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Service, 0, len(s.services))
	for _, svc := range s.services {
		if svc.Active {
			out = append(out, svc)
		}
	}
	return out
}

// Version increases on every state change.
func (s *Service) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a copy of the full store state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Services:    cloneServices(s.services),
		Loading:     s.loading,
		Error:       s.loadErr,
		ActionError: s.actionErr,
		Version:     s.version,
	}
}

// applyPendingLocked keeps in-flight toggles visible over a fresh load.
func (s *Service) applyPendingLocked(services []models.Service) []models.Service {
	out := cloneServices(services)
	if len(s.toggleSeq) == 0 {
		return out
	}
	for i := range out {
		code := reconcile.NormalizeCode(out[i].Code)
		if _, pending := s.toggleSeq[code]; !pending {
			continue
		}
		if prev := s.indexLocked(code); prev >= 0 {
			out[i].Active = s.services[prev].Active
		}
	}
	return out
}

func (s *Service) indexLocked(code string) int {
	for i, svc := range s.services {
		if reconcile.NormalizeCode(svc.Code) == code {
			return i
		}
	}
	return -1
}

func cloneServices(services []models.Service) []models.Service {
	out := make([]models.Service, len(services))
	copy(out, services)
	return out
}
