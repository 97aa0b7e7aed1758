// Package dashboard wires the watchlist, the user's services and the
// availability resolver into one session and derives the reconciled view.
package dashboard

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"watchwise/internal/insights"
	"watchwise/internal/reconcile"
	"watchwise/models"
	"watchwise/services/availability"
	"watchwise/services/streaming"
	"watchwise/services/watchlist"

	"github.com/sourcegraph/conc"
)

var ErrClosed = errors.New("dashboard session closed")

// Options configures a Session.
type Options struct {
	ID           string
	HeadlineSize int
}

// SectionErrors carries the load error of each source. A failed source never
// blanks the others.
type SectionErrors struct {
	Watchlist string `json:"watchlist,omitempty"`
	Services  string `json:"services,omitempty"`
}

// Snapshot is the full reconciled dashboard state. Slices are shared between
// callers and must not be modified.
type Snapshot struct {
	SessionID           string                             `json:"session_id"`
	Watchlist           watchlist.Snapshot                 `json:"watchlist"`
	Services            streaming.Snapshot                 `json:"services"`
	Availability        map[string]models.ItemAvailability `json:"availability"`
	AvailabilityLoading bool                               `json:"availability_loading"`
	AvailableForYou     []models.Match                     `json:"available_for_you"`
	AvailableLoading    bool                               `json:"available_loading"`
	Headline            []models.Match                     `json:"headline"`
	Stats               []models.Stat                      `json:"stats"`
	Errors              SectionErrors                      `json:"errors"`
	GeneratedAt         time.Time                          `json:"generated_at"`
}

// Session coordinates loads and mutations against the backend.
type Session struct {
	id           string
	headlineSize int

	watchlist *watchlist.Service
	services  *streaming.Service
	resolver  *availability.Service

	ctx    context.Context
	cancel context.CancelFunc
	bg     conc.WaitGroup

	memoMu  sync.Mutex
	memoKey [3]uint64
	memo    *Snapshot
}

// NewSession builds a session whose lifetime is bounded by ctx and Close.
func NewSession(ctx context.Context, wl *watchlist.Service, svc *streaming.Service, resolver *availability.Service, opts Options) *Session {
	size := opts.HeadlineSize
	if size <= 0 {
		size = reconcile.DefaultHeadlineSize
	}
	root, cancel := context.WithCancel(ctx)
	s := &Session{
		id:           opts.ID,
		headlineSize: size,
		watchlist:    wl,
		services:     svc,
		resolver:     resolver,
		ctx:          root,
		cancel:       cancel,
	}
	wl.SetOnLoaded(s.onWatchlistLoaded)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// onWatchlistLoaded prunes availability of items that are gone and resolves
// the rest in one batch.
func (s *Session) onWatchlistLoaded(ctx context.Context, items []models.WatchlistItem) {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	s.resolver.Retain(ids)
	s.resolver.Resolve(ctx, items, availability.ResolveOptions{})
}

// Start performs the initial load of both sources.
func (s *Session) Start(ctx context.Context) error {
	log.Printf("[dashboard] session %s starting", s.id)
	return s.Refresh(ctx)
}

// Refresh reloads the watchlist and the services in parallel, showing the
// loading indicators.
func (s *Session) Refresh(ctx context.Context) error {
	return s.load(ctx, false)
}

// Resync reloads both sources silently.
func (s *Session) Resync(ctx context.Context) error {
	return s.load(ctx, true)
}

func (s *Session) load(ctx context.Context, silent bool) error {
	ctx, cancel, err := s.scope(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	var wlErr, svcErr error
	var wg conc.WaitGroup
	wg.Go(func() {
		wlErr = s.watchlist.Load(ctx, watchlist.LoadOptions{Silent: silent})
	})
	wg.Go(func() {
		svcErr = s.services.Load(ctx, streaming.LoadOptions{Silent: silent})
	})
	wg.Wait()
	return errors.Join(wlErr, svcErr)
}

// SetQuery changes the watchlist listing and reloads it when it changed.
func (s *Session) SetQuery(ctx context.Context, q watchlist.Query) error {
	changed, err := s.watchlist.SetQuery(q)
	if err != nil || !changed {
		return err
	}
	ctx, cancel, err := s.scope(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return s.watchlist.Load(ctx, watchlist.LoadOptions{})
}

// UpdateStatus changes an item's status and resyncs the watchlist afterwards.
func (s *Session) UpdateStatus(ctx context.Context, id string, status models.WatchStatus) error {
	ctx, cancel, err := s.scope(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	err = s.watchlist.UpdateStatus(ctx, id, status)
	if errors.Is(err, watchlist.ErrItemNotFound) || errors.Is(err, watchlist.ErrInvalidStatus) {
		return err
	}
	s.reloadWatchlist()
	return err
}

// Remove deletes an item and resyncs the watchlist afterwards.
func (s *Session) Remove(ctx context.Context, id string) error {
	ctx, cancel, err := s.scope(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	err = s.watchlist.Remove(ctx, id)
	if errors.Is(err, watchlist.ErrItemNotFound) {
		return err
	}
	s.reloadWatchlist()
	return err
}

// Import uploads a CSV export; the watchlist store reloads on success.
func (s *Session) Import(ctx context.Context, filename string, size int64, r io.Reader) (models.ImportResult, error) {
	ctx, cancel, err := s.scope(ctx)
	if err != nil {
		return models.ImportResult{}, err
	}
	defer cancel()
	return s.watchlist.Import(ctx, filename, size, r)
}

// ToggleServices applies each toggle and resyncs the services afterwards.
func (s *Session) ToggleServices(ctx context.Context, toggles []models.ServiceToggle) error {
	ctx, cancel, err := s.scope(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	var errs []error
	attempted := false
	for _, toggle := range toggles {
		err := s.services.Toggle(ctx, toggle.Code, toggle.Active)
		if !errors.Is(err, streaming.ErrServiceNotFound) {
			attempted = true
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if attempted {
		s.reloadServices()
	}
	return errors.Join(errs...)
}

// CheckAvailability forces a fresh availability lookup for one item.
func (s *Session) CheckAvailability(ctx context.Context, id string) (models.ItemAvailability, error) {
	ctx, cancel, err := s.scope(ctx)
	if err != nil {
		return models.ItemAvailability{}, err
	}
	defer cancel()

	item, ok := s.watchlist.Get(id)
	if !ok {
		return models.ItemAvailability{}, watchlist.ErrItemNotFound
	}
	return s.resolver.Refresh(ctx, item)
}

// Snapshot returns the reconciled view, recomputed only when a source changed.
func (s *Session) Snapshot() Snapshot {
	s.memoMu.Lock()
	defer s.memoMu.Unlock()

	key := [3]uint64{s.watchlist.Version(), s.services.Version(), s.resolver.Version()}
	if s.memo != nil && key == s.memoKey {
		return *s.memo
	}

	wl := s.watchlist.Snapshot()
	svc := s.services.Snapshot()
	states := s.resolver.States()
	availLoading := s.resolver.Loading()

	matches := reconcile.Reconcile(wl.Items, svc.Services, s.resolver.Records())
	src := insights.Sources{
		Items:               wl.Items,
		Services:            svc.Services,
		Available:           matches,
		WatchlistLoading:    wl.Loading,
		ServicesLoading:     svc.Loading,
		AvailabilityLoading: availLoading,
	}
	svc.Services = insights.SortServices(svc.Services)

	snap := &Snapshot{
		SessionID:           s.id,
		Watchlist:           wl,
		Services:            svc,
		Availability:        states,
		AvailabilityLoading: availLoading,
		AvailableForYou:     matches,
		AvailableLoading:    src.AvailableSectionLoading(),
		Headline:            reconcile.Headline(matches, s.headlineSize),
		Stats:               insights.Compute(src),
		Errors:              SectionErrors{Watchlist: wl.Error, Services: svc.Error},
		GeneratedAt:         time.Now().UTC(),
	}
	s.memo, s.memoKey = snap, key
	return *snap
}

// Wait blocks until scheduled background reloads have finished.
func (s *Session) Wait() {
	s.bg.Wait()
}

// Close cancels every in-flight call and drains background work.
func (s *Session) Close() {
	s.cancel()
	s.watchlist.Cancel()
	s.services.Cancel()
	s.bg.Wait()
	log.Printf("[dashboard] session %s closed", s.id)
}

func (s *Session) reloadWatchlist() {
	if s.ctx.Err() != nil {
		return
	}
	s.bg.Go(func() {
		if err := s.watchlist.Load(s.ctx, watchlist.LoadOptions{Silent: true}); err != nil {
			log.Printf("[dashboard] background watchlist reload failed: %v", err)
		}
	})
}

func (s *Session) reloadServices() {
	if s.ctx.Err() != nil {
		return
	}
	s.bg.Go(func() {
		if err := s.services.Load(s.ctx, streaming.LoadOptions{Silent: true}); err != nil {
			log.Printf("[dashboard] background services reload failed: %v", err)
		}
	})
}

// scope derives a context cancelled by either ctx or the session.
func (s *Session) scope(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if s.ctx.Err() != nil {
		return nil, nil, ErrClosed
	}
	scoped, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return scoped, func() {
		stop()
		cancel()
	}, nil
}
