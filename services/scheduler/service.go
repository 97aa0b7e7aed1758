package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// DefaultInterval is used when the configured interval is below a second.
const DefaultInterval = 5 * time.Minute

var (
	ErrAlreadyRunning = errors.New("resync is already running")
	ErrNotStarted     = errors.New("scheduler is not running")
)

// Resyncer refreshes the dashboard session in the background.
type Resyncer interface {
	Resync(ctx context.Context) error
}

// RunStatus is the outcome of a resync run.
type RunStatus string

const (
	StatusPending RunStatus = "pending"
	StatusRunning RunStatus = "running"
	StatusSuccess RunStatus = "success"
	StatusError   RunStatus = "error"
)

// Status describes the resync task, in memory only.
type Status struct {
	Interval   time.Duration `json:"interval"`
	LastRunAt  *time.Time    `json:"last_run_at,omitempty"`
	LastStatus RunStatus     `json:"last_status"`
	LastError  string        `json:"last_error,omitempty"`
	Runs       int           `json:"runs"`
}

// Service periodically resyncs the session with the backend.
type Service struct {
	target   Resyncer
	interval time.Duration

	// Runtime state
	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	taskMu     sync.RWMutex
	taskActive bool
	status     Status
}

// NewService creates a scheduler that calls target every interval.
func NewService(target Resyncer, interval time.Duration) *Service {
	if interval < time.Second {
		interval = DefaultInterval
	}
	return &Service{
		target:   target,
		interval: interval,
		status:   Status{Interval: interval, LastStatus: StatusPending},
	}
}

// Start begins the scheduler background loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.loop(s.ctx)

	log.Printf("[scheduler] Resync scheduled every %s", s.interval)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[scheduler] Scheduler service stopped gracefully")
	case <-ctx.Done():
		log.Println("[scheduler] Scheduler service stopped (timeout)")
	}

	s.running = false
	return nil
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.execute(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				log.Printf("[scheduler] Resync failed: %v", err)
			}
		}
	}
}

// RunNow triggers an immediate resync in the background.
func (s *Service) RunNow() error {
	// Stop waits on wg under the write lock, so Add stays under the read lock.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return ErrNotStarted
	}
	if s.IsRunning() {
		return ErrAlreadyRunning
	}

	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.execute(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			log.Printf("[scheduler] Manual resync failed: %v", err)
		}
	}()
	return nil
}

// execute runs one resync; overlapping runs are skipped.
func (s *Service) execute(ctx context.Context) error {
	s.taskMu.Lock()
	if s.taskActive {
		s.taskMu.Unlock()
		return ErrAlreadyRunning
	}
	s.taskActive = true
	s.taskMu.Unlock()

	err := s.target.Resync(ctx)

	now := time.Now().UTC()
	s.taskMu.Lock()
	defer s.taskMu.Unlock()
	s.taskActive = false
	if ctx.Err() != nil {
		return nil
	}
	s.status.LastRunAt = &now
	s.status.Runs++
	if err != nil {
		s.status.LastStatus = StatusError
		s.status.LastError = err.Error()
		return err
	}
	s.status.LastStatus = StatusSuccess
	s.status.LastError = ""
	return nil
}

// Status returns the task status; a run in progress reports "running".
func (s *Service) Status() Status {
	s.taskMu.RLock()
	defer s.taskMu.RUnlock()
	status := s.status
	if status.LastRunAt != nil {
		at := *status.LastRunAt
		status.LastRunAt = &at
	}
	if s.taskActive {
		status.LastStatus = StatusRunning
	}
	return status
}

// IsRunning reports whether a resync is in progress.
func (s *Service) IsRunning() bool {
	s.taskMu.RLock()
	defer s.taskMu.RUnlock()
	return s.taskActive
}
