package watchlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"watchwise/internal/backend"
	"watchwise/models"
)

// MaxImportBytes bounds the size of an uploaded CSV export.
const MaxImportBytes = 10 << 20

const (
	msgLoadFailed   = "Failed to load your watchlist."
	msgLoadRetry    = "Unable to load your watchlist. Please retry."
	msgUpdateFailed = "Failed to update watchlist item."
	msgUpdateRetry  = "Unable to update watchlist item. Please retry."
	msgRemoveFailed = "Failed to remove watchlist item."
	msgRemoveRetry  = "Unable to remove watchlist item. Please retry."
	msgImportFailed = "Failed to import watchlist. Please try again."
	msgImportRetry  = "Unable to import watchlist. Please retry."
	msgImportNotCSV = "Please upload a CSV file."
	msgImportLarge  = "File too large. Please upload a file under 10MB."
)

var (
	ErrItemNotFound   = errors.New("watchlist item not found")
	ErrInvalidStatus  = errors.New("invalid watchlist status")
	ErrInvalidSort    = errors.New("invalid sort option")
	ErrInvalidType    = errors.New("invalid media type")
	ErrImportNotCSV   = errors.New("import file must be a csv")
	ErrImportTooLarge = errors.New("import file too large")
)

// SortOptions lists the orderings the backend supports.
var SortOptions = []string{"-added_at", "title", "-year", "year"}

// DefaultSort lists the most recently added titles first.
const DefaultSort = "-added_at"

// Backend is the subset of the backend API the watchlist store uses.
type Backend interface {
	ListWatchlist(ctx context.Context, query backend.ListQuery) ([]models.WatchlistItem, error)
	UpdateStatus(ctx context.Context, id string, status models.WatchStatus) (*models.WatchlistItem, error)
	DeleteItem(ctx context.Context, id string) error
	ImportWatchlist(ctx context.Context, filename string, r io.Reader) (models.ImportResult, error)
}

// Query selects and orders the listing. An empty Type lists everything.
type Query struct {
	Sort string           `json:"sort"`
	Type models.MediaType `json:"type,omitempty"`
}

// Validate checks the query against the supported options.
func (q Query) Validate() error {
	valid := false
	for _, opt := range SortOptions {
		if q.Sort == opt {
			valid = true
			break
		}
	}
	if !valid {
		return ErrInvalidSort
	}
	if q.Type != "" && !q.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// LoadOptions tweaks a single Load call.
type LoadOptions struct {
	// Silent keeps the loading indicator untouched and preserves the current
	// items if the load fails.
	Silent bool
}

// LoadedFunc runs after every successful load with the freshly stored items.
type LoadedFunc func(ctx context.Context, items []models.WatchlistItem)

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	Items         []models.WatchlistItem `json:"items"`
	Loading       bool                   `json:"loading"`
	Importing     bool                   `json:"importing"`
	Error         string                 `json:"error,omitempty"`
	ActionError   string                 `json:"action_error,omitempty"`
	ActionMessage string                 `json:"action_message,omitempty"`
	LastImport    *models.ImportResult   `json:"last_import,omitempty"`
	Query         Query                  `json:"query"`
	Version       uint64                 `json:"-"`
}

type pendingStatus struct {
	status models.WatchStatus
	seq    uint64
}

// Service mirrors the remote watchlist and applies mutations optimistically.
type Service struct {
	mu  sync.RWMutex
	api Backend

	query      Query
	items      []models.WatchlistItem
	loading    bool
	importing  bool
	loadErr    string
	actionErr  string
	actionMsg  string
	lastImport *models.ImportResult
	version    uint64

	loadSeq    uint64
	cancelLoad context.CancelFunc

	mutationSeq uint64
	pending     map[string]pendingStatus
	// tombstones hide removed ids from loads; true once the backend confirmed.
	tombstones map[string]bool

	onLoaded LoadedFunc
}

// NewService creates a watchlist store backed by api.
func NewService(api Backend) *Service {
	return &Service{
		api:        api,
		query:      Query{Sort: DefaultSort},
		items:      []models.WatchlistItem{},
		pending:    make(map[string]pendingStatus),
		tombstones: make(map[string]bool),
	}
}

// SetOnLoaded registers the hook run after each successful load.
func (s *Service) SetOnLoaded(fn LoadedFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLoaded = fn
}

// SetQuery changes the listing query. A changed query cancels the in-flight
// load; the caller is expected to reload.
func (s *Service) SetQuery(q Query) (bool, error) {
	if q.Sort == "" {
		q.Sort = DefaultSort
	}
	if err := q.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if q == s.query {
		return false, nil
	}
	s.query = q
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
	s.version++
	return true, nil
}

// Load fetches the full watchlist and replaces the local copy. Cancelled
// loads, including ones superseded by a newer Load, leave state untouched.
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
	query := s.query
	prevLoading, prevErr := s.loading, s.loadErr
	if !opts.Silent {
		s.loading = true
		s.loadErr = ""
		s.version++
	}
	s.mu.Unlock()

	items, err := s.api.ListWatchlist(loadCtx, backend.ListQuery{Sort: query.Sort, Type: query.Type})

	s.mu.Lock()
	current := seq == s.loadSeq
	if current {
		s.cancelLoad = nil
	}
	if loadCtx.Err() != nil || backend.IsCanceled(err) {
		if current && !opts.Silent {
			s.loading, s.loadErr = prevLoading, prevErr
			s.version++
		}
		s.mu.Unlock()
		return nil
	}
	if !current {
		s.mu.Unlock()
		return nil
	}

	if !opts.Silent {
		s.loading = false
	}
	if err != nil {
		s.loadErr = backend.Message(err, msgLoadFailed, msgLoadRetry)
		if !opts.Silent {
			s.items = []models.WatchlistItem{}
		}
		s.version++
		s.mu.Unlock()
		log.Printf("[watchlist] load failed: %v", err)
		return err
	}

	s.items = s.applyPendingLocked(items)
	s.loadErr = ""
	s.version++
	loaded := cloneItems(s.items)
	hook := s.onLoaded
	s.mu.Unlock()

	if hook != nil {
		hook(ctx, loaded)
	}
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

// UpdateStatus applies the new status locally and then on the backend. A
// failed update is reported but not rolled back; the next reload corrects it.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.WatchStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	s.items[idx].Status = status
	s.mutationSeq++
	seq := s.mutationSeq
	s.pending[id] = pendingStatus{status: status, seq: seq}
	s.actionErr, s.actionMsg = "", ""
	s.version++
	s.mu.Unlock()

	echo, err := s.api.UpdateStatus(ctx, id, status)

	s.mu.Lock()
	defer s.mu.Unlock()
	latest := false
	if p, ok := s.pending[id]; ok && p.seq == seq {
		delete(s.pending, id)
		latest = true
	}
	if err != nil {
		if backend.IsCanceled(err) {
			return nil
		}
		s.actionErr = backend.Message(err, msgUpdateFailed, msgUpdateRetry)
		s.version++
		log.Printf("[watchlist] update status of %s failed: %v", id, err)
		return err
	}
	if latest && echo != nil {
		if i := s.indexLocked(id); i >= 0 {
			s.items[i] = *echo
		}
	}
	s.actionMsg = fmt.Sprintf("Updated status to %s.", status.Label())
	s.version++
	return nil
}

// Remove drops the item locally and then deletes it on the backend. Until
// the backend confirms, loads never bring the item back.
func (s *Service) Remove(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrItemNotFound
	}

	s.mu.Lock()
	title := id
	if idx := s.indexLocked(id); idx >= 0 {
		title = s.items[idx].Title
		s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	}
	s.tombstones[id] = false
	s.actionErr, s.actionMsg = "", ""
	s.version++
	s.mu.Unlock()

	err := s.api.DeleteItem(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		delete(s.tombstones, id)
		if backend.IsCanceled(err) {
			return nil
		}
		s.actionErr = backend.Message(err, msgRemoveFailed, msgRemoveRetry)
		s.version++
		log.Printf("[watchlist] remove %s failed: %v", id, err)
		return err
	}
	if _, ok := s.tombstones[id]; ok {
		s.tombstones[id] = true
	}
	s.actionMsg = fmt.Sprintf("Removed %q from your watchlist.", title)
	s.version++
	return nil
}

// Import uploads a CSV export to the backend and reloads the watchlist once
// the backend has merged it.
func (s *Service) Import(ctx context.Context, filename string, size int64, r io.Reader) (models.ImportResult, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		s.setActionError(msgImportNotCSV)
		return models.ImportResult{}, ErrImportNotCSV
	}
	if size > MaxImportBytes {
		s.setActionError(msgImportLarge)
		return models.ImportResult{}, ErrImportTooLarge
	}

	s.mu.Lock()
	s.importing = true
	s.actionErr, s.actionMsg = "", ""
	s.lastImport = nil
	s.version++
	s.mu.Unlock()

	result, err := s.api.ImportWatchlist(ctx, filename, io.LimitReader(r, MaxImportBytes))

	s.mu.Lock()
	s.importing = false
	if err != nil {
		if !backend.IsCanceled(err) {
			s.actionErr = backend.Message(err, msgImportFailed, msgImportRetry)
			log.Printf("[watchlist] import of %s failed: %v", filename, err)
		}
		s.version++
		s.mu.Unlock()
		if backend.IsCanceled(err) {
			return models.ImportResult{}, nil
		}
		return models.ImportResult{}, err
	}
	s.lastImport = &result
	s.actionMsg = ImportSummary(result)
	s.version++
	s.mu.Unlock()

	return result, s.MergeImported(ctx, result.Imported)
}

// MergeImported reloads the watchlist after a bulk import. Imported rows are
// never merged locally; duplicate detection belongs to the backend.
func (s *Service) MergeImported(ctx context.Context, count int) error {
	log.Printf("[watchlist] reloading after import of %d item(s)", count)
	return s.Load(ctx, LoadOptions{})
}

// ImportSummary renders the one-line import outcome.
func ImportSummary(result models.ImportResult) string {
	parts := []string{fmt.Sprintf("%d item%s imported", result.Imported, plural(result.Imported))}
	if result.Duplicates > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicate%s skipped", result.Duplicates, plural(result.Duplicates)))
	}
	if n := len(result.Errors); n > 0 {
		parts = append(parts, fmt.Sprintf("%d row%s had issues", n, plural(n)))
	}
	return strings.Join(parts, " · ")
}

// Items returns a copy of the current items.
func (s *Service) Items() []models.WatchlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// Get returns the item with the given id.
func (s *Service) Get(id string) (models.WatchlistItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return s.items[idx], true
	}
	return models.WatchlistItem{}, false
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
	snap := Snapshot{
		Items:         cloneItems(s.items),
		Loading:       s.loading,
		Importing:     s.importing,
		Error:         s.loadErr,
		ActionError:   s.actionErr,
		ActionMessage: s.actionMsg,
		Query:         s.query,
		Version:       s.version,
	}
	if s.lastImport != nil {
		result := *s.lastImport
		snap.LastImport = &result
	}
	return snap
}

func (s *Service) setActionError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actionErr, s.actionMsg = msg, ""
	s.version++
}

// applyPendingLocked hides tombstoned ids and overlays in-flight status
// updates onto freshly fetched items.
func (s *Service) applyPendingLocked(items []models.WatchlistItem) []models.WatchlistItem {
	present := make(map[string]bool, len(items))
	out := make([]models.WatchlistItem, 0, len(items))
	for _, item := range items {
		present[item.ID] = true
		if _, hidden := s.tombstones[item.ID]; hidden {
			continue
		}
		if p, ok := s.pending[item.ID]; ok {
			item.Status = p.status
		}
		out = append(out, item)
	}
	for id, confirmed := range s.tombstones {
		if confirmed && !present[id] {
			delete(s.tombstones, id)
		}
	}
	return out
}

func (s *Service) indexLocked(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func cloneItems(items []models.WatchlistItem) []models.WatchlistItem {
	out := make([]models.WatchlistItem, len(items))
	copy(out, items)
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
