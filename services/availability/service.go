package availability

import (
	"context"
	"errors"
	"log"
	"sync"

	"watchwise/internal/backend"
	"watchwise/models"

	"golang.org/x/sync/singleflight"
)

const (
	msgResolveFailed = "Failed to load availability."
	msgResolveRetry  = "Unable to load availability. Please try again."
)

var ErrNoExternalID = errors.New("item has no title database id")

// Backend is the subset of the backend API the resolver uses.
type Backend interface {
	ResolveAvailability(ctx context.Context, req backend.BatchRequest) (backend.BatchResponse, error)
}

// ResolveOptions tweaks a single Resolve call.
type ResolveOptions struct {
	// Force re-resolves items that are already resolved or loading.
	Force bool
}

type outcome struct {
	state  models.ResolutionState
	record *models.AvailabilityRecord
	err    string
}

type entry struct {
	outcome
	attempt uint64
	// token is the attempt's context while loading.
	token context.Context
	prev  outcome
}

// current reports the entry as seen by readers: a loading entry whose attempt
// was cancelled shows its pre-attempt outcome.
func (e *entry) current() outcome {
	if e.state == models.ResolutionLoading && e.token != nil && e.token.Err() != nil {
		return e.prev
	}
	return e.outcome
}

// Service tracks availability resolution per watchlist item.
type Service struct {
	mu      sync.RWMutex
	api     Backend
	region  string
	entries map[string]*entry
	seq     uint64
	version uint64

	refreshes singleflight.Group
}

// NewService creates a resolver. An empty region lets the backend decide.
func NewService(api Backend, region string) *Service {
	return &Service{
		api:     api,
		region:  region,
		entries: make(map[string]*entry),
	}
}

// Resolve looks up availability for the eligible items in a single batch.
// Failures are recorded per item; nothing is returned to the caller.
func (s *Service) Resolve(ctx context.Context, items []models.WatchlistItem, opts ResolveOptions) {
	token, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.seq++
	attempt := s.seq
	batch := make([]models.WatchlistItem, 0, len(items))
	claimed := make(map[string]bool, len(items))
	for _, item := range items {
		if !item.HasExternalID() || claimed[item.ID] {
			continue
		}
		prev := outcome{state: models.ResolutionUnresolved}
		if e, ok := s.entries[item.ID]; ok {
			prev = e.current()
		}
		if !opts.Force && (prev.state == models.ResolutionResolved || prev.state == models.ResolutionLoading) {
			continue
		}
		if prev.state == models.ResolutionLoading {
			// superseded attempt can no longer settle the entry
			prev = s.entries[item.ID].prev
		}
		s.entries[item.ID] = &entry{
			outcome: outcome{state: models.ResolutionLoading, record: prev.record},
			attempt: attempt,
			token:   token,
			prev:    prev,
		}
		claimed[item.ID] = true
		batch = append(batch, item)
	}
	if len(batch) == 0 {
		s.mu.Unlock()
		return
	}
	s.version++
	region := s.region
	s.mu.Unlock()

	// Readers switch to the pre-attempt view as soon as the token is done.
	stop := context.AfterFunc(token, s.bump)
	resp, err := s.api.ResolveAvailability(token, buildRequest(batch, region))
	s.apply(token, attempt, batch, resp, err)
	stop()
}

func (s *Service) bump() {
	s.mu.Lock()
	s.version++
	s.mu.Unlock()
}

// Refresh forces a new lookup for one item, superseding only that item's
// in-flight attempt. Concurrent refreshes of the same item share one call.
func (s *Service) Refresh(ctx context.Context, item models.WatchlistItem) (models.ItemAvailability, error) {
	if !item.HasExternalID() {
		return models.ItemAvailability{}, ErrNoExternalID
	}
	s.refreshes.Do(item.ID, func() (any, error) {
		s.Resolve(ctx, []models.WatchlistItem{item}, ResolveOptions{Force: true})
		return nil, nil
	})
	return s.State(item.ID), nil
}

// Retain drops every entry whose id is not in ids.
func (s *Service) Retain(ids []string) {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for id := range s.entries {
		if _, ok := keep[id]; !ok {
			delete(s.entries, id)
			pruned++
		}
	}
	if pruned > 0 {
		s.version++
	}
}

// State returns the resolution state of one item.
func (s *Service) State(id string) models.ItemAvailability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return models.ItemAvailability{ItemID: id, State: models.ResolutionUnresolved}
	}
	return view(id, e.current())
}

// States returns the resolution state of every tracked item.
func (s *Service) States() map[string]models.ItemAvailability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.ItemAvailability, len(s.entries))
	for id, e := range s.entries {
		out[id] = view(id, e.current())
	}
	return out
}

// Records returns the availability records of resolved items and of items
// being re-resolved.
func (s *Service) Records() map[string]models.AvailabilityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.AvailabilityRecord, len(s.entries))
	for id, e := range s.entries {
		cur := e.current()
		// a forced refresh keeps showing the previous record until it settles
		if (cur.state == models.ResolutionResolved || cur.state == models.ResolutionLoading) && cur.record != nil {
			out[id] = *cur.record
		}
	}
	return out
}

// Loading reports whether any lookup is in flight.
func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.current().state == models.ResolutionLoading {
			return true
		}
	}
	return false
}

// Version increases on every state change.
func (s *Service) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Service) apply(token context.Context, attempt uint64, batch []models.WatchlistItem, resp backend.BatchResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.version++ }()

	if token.Err() != nil || backend.IsCanceled(err) {
		for _, item := range batch {
			if e, ok := s.entries[item.ID]; ok && e.attempt == attempt {
				e.outcome, e.token = e.prev, nil
			}
		}
		return
	}

	msg := ""
	if err != nil {
		msg = backend.Message(err, msgResolveFailed, msgResolveRetry)
		log.Printf("[availability] batch of %d item(s) failed: %v", len(batch), err)
	}
	for _, item := range batch {
		e, ok := s.entries[item.ID]
		if !ok || e.attempt != attempt {
			continue
		}
		e.token, e.prev = nil, outcome{}
		if err != nil {
			e.outcome = outcome{state: models.ResolutionFailed, err: msg}
			continue
		}
		result := resp.Results[backend.ItemKey(backend.MediaKind(item.Type), item.ExternalID)]
		record := &models.AvailabilityRecord{
			ItemID:                item.ID,
			Region:                resp.Region,
			Providers:             result.Providers,
			UnmatchedServiceNames: result.UnmatchedServiceNames,
		}
		if record.Providers == nil {
			record.Providers = []models.Provider{}
		}
		if record.UnmatchedServiceNames == nil {
			record.UnmatchedServiceNames = []string{}
		}
		e.outcome = outcome{state: models.ResolutionResolved, record: record}
	}
}

// buildRequest collapses items that refer to the same title.
func buildRequest(items []models.WatchlistItem, region string) backend.BatchRequest {
	req := backend.BatchRequest{Items: make([]backend.BatchItem, 0, len(items)), Region: region}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		kind := backend.MediaKind(item.Type)
		key := backend.ItemKey(kind, item.ExternalID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		req.Items = append(req.Items, backend.BatchItem{ID: item.ExternalID, Type: kind})
	}
	return req
}

func view(id string, o outcome) models.ItemAvailability {
	out := models.ItemAvailability{ItemID: id, State: o.state, Error: o.err}
	if o.record != nil {
		record := *o.record
		out.Record = &record
	}
	return out
}
