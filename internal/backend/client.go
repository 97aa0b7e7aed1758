// Package backend talks to the remote watchlist backend: watchlist items,
// the user's streaming services and batched availability lookups.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"watchwise/models"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const maxResponseBytes = 8 << 20

var (
	ErrBaseURLRequired = errors.New("backend base url is required")
	ErrIDRequired      = errors.New("item id is required")
)

//go:generate mockgen -destination=../mocks/backend.go -package=mocks watchwise/internal/backend API

// API is the set of backend calls the stores and the resolver depend on.
type API interface {
	ListWatchlist(ctx context.Context, query ListQuery) ([]models.WatchlistItem, error)
	UpdateStatus(ctx context.Context, id string, status models.WatchStatus) (*models.WatchlistItem, error)
	DeleteItem(ctx context.Context, id string) error
	ImportWatchlist(ctx context.Context, filename string, r io.Reader) (models.ImportResult, error)
	ListServices(ctx context.Context) ([]models.Service, error)
	ToggleServices(ctx context.Context, toggles []models.ServiceToggle) error
	ResolveAvailability(ctx context.Context, req BatchRequest) (BatchResponse, error)
}

var _ API = (*Client)(nil)

// ListQuery narrows and orders the watchlist listing.
type ListQuery struct {
	Sort string
	Type models.MediaType
}

// BatchItem is one title in a batched availability request.
type BatchItem struct {
	ID   int    `json:"id"`
	Type string `json:"type"` // movie | tv
}

// BatchRequest asks for availability of several titles at once.
type BatchRequest struct {
	Items  []BatchItem `json:"items"`
	Region string      `json:"region,omitempty"`
}

// BatchResult is the availability of one title inside a batch response.
type BatchResult struct {
	Providers             []models.Provider `json:"providers"`
	UnmatchedServiceNames []string          `json:"unmatched_user_services"`
}

// BatchResponse maps ItemKey values to results. Titles missing from Results
// have no availability data.
type BatchResponse struct {
	Region  string                 `json:"region"`
	Results map[string]BatchResult `json:"results"`
}

// MediaKind maps a watchlist media type onto the title database kind.
func MediaKind(t models.MediaType) string {
	if t == models.MediaTypeShow {
		return "tv"
	}
	return "movie"
}

// ItemKey is the batch response key for a title, e.g. "movie_123" or "tv_456".
func ItemKey(kind string, id int) string {
	return kind + "_" + strconv.Itoa(id)
}

// Options configures a Client.
type Options struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
	HTTPClient    *http.Client
}

// Client is an HTTP implementation of API.
type Client struct {
	baseURL  string
	token    string
	httpc    *http.Client
	attempts uint
	delay    time.Duration
}

// NewClient builds a Client against the backend at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrBaseURLRequired
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}

	httpc := opts.HTTPClient
	if httpc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}
	attempts := opts.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}

	return &Client{
		baseURL:  base,
		token:    strings.TrimSpace(opts.Token),
		httpc:    httpc,
		attempts: attempts,
		delay:    delay,
	}, nil
}

// ListWatchlist fetches the full watchlist. An absent items array is an
// empty list.
func (c *Client) ListWatchlist(ctx context.Context, query ListQuery) ([]models.WatchlistItem, error) {
	params := url.Values{}
	if query.Sort != "" {
		params.Set("sort", query.Sort)
	}
	if query.Type != "" {
		params.Set("type", string(query.Type))
	}
	path := "/api/watchlist"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	const op = "list watchlist"
	body, err := c.doRetry(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Items []models.WatchlistItem `json:"items"`
	}
	if err := decode(op, body, &payload); err != nil {
		return nil, err
	}
	if payload.Items == nil {
		payload.Items = []models.WatchlistItem{}
	}
	return payload.Items, nil
}

// UpdateStatus sets the status of one item. The returned item is nil when the
// backend answered without an item echo.
func (c *Client) UpdateStatus(ctx context.Context, id string, status models.WatchStatus) (*models.WatchlistItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrIDRequired
	}
	payload, err := json.Marshal(map[string]models.WatchStatus{"status": status})
	if err != nil {
		return nil, fmt.Errorf("marshal status: %w", err)
	}

	body, err := c.do(ctx, "update item", http.MethodPatch, "/api/watchlist/"+url.PathEscape(id), payload, "application/json")
	if err != nil {
		return nil, err
	}

	var item models.WatchlistItem
	if err := json.Unmarshal(body, &item); err != nil || item.ID == "" {
		return nil, nil
	}
	return &item, nil
}

// DeleteItem removes an item. Deleting an item the backend no longer has is
// not an error.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrIDRequired
	}
	_, err := c.do(ctx, "delete item", http.MethodDelete, "/api/watchlist/"+url.PathEscape(id), nil, "")
	if IsNotFound(err) {
		return nil
	}
	return err
}

// ImportWatchlist uploads a CSV export. Parsing and duplicate detection happen
// on the backend.
func (c *Client) ImportWatchlist(ctx context.Context, filename string, r io.Reader) (models.ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return models.ImportResult{}, fmt.Errorf("copy import file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return models.ImportResult{}, fmt.Errorf("close multipart: %w", err)
	}

	const op = "import watchlist"
	body, err := c.do(ctx, op, http.MethodPost, "/api/watchlist/import", buf.Bytes(), mw.FormDataContentType())
	if err != nil {
		return models.ImportResult{}, err
	}
	var result models.ImportResult
	if len(bytes.TrimSpace(body)) == 0 {
		return result, &Error{Op: op, Kind: KindMalformed, Err: errors.New("empty import summary")}
	}
	if err := decode(op, body, &result); err != nil {
		return models.ImportResult{}, err
	}
	return result, nil
}

// ListServices fetches the user's streaming services.
func (c *Client) ListServices(ctx context.Context) ([]models.Service, error) {
	const op = "list services"
	body, err := c.doRetry(ctx, op, http.MethodGet, "/api/me/services", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Services []models.Service `json:"services"`
	}
	if err := decode(op, body, &payload); err != nil {
		return nil, err
	}
	if payload.Services == nil {
		payload.Services = []models.Service{}
	}
	return payload.Services, nil
}

// ToggleServices sends the desired active state of one or more services.
func (c *Client) ToggleServices(ctx context.Context, toggles []models.ServiceToggle) error {
	payload, err := json.Marshal(map[string][]models.ServiceToggle{"toggle": toggles})
	if err != nil {
		return fmt.Errorf("marshal toggles: %w", err)
	}
	_, err = c.do(ctx, "toggle services", http.MethodPatch, "/api/me/services", payload, "application/json")
	return err
}

// ResolveAvailability performs one batched availability lookup. A response
// without a results object is malformed.
func (c *Client) ResolveAvailability(ctx context.Context, req BatchRequest) (BatchResponse, error) {
	const op = "resolve availability"
	payload, err := json.Marshal(req)
	if err != nil {
		return BatchResponse{}, fmt.Errorf("marshal batch: %w", err)
	}
	body, err := c.doRetry(ctx, op, http.MethodPost, "/api/availability/batch", payload)
	if err != nil {
		return BatchResponse{}, err
	}
	var resp BatchResponse
	if err := decode(op, body, &resp); err != nil {
		return BatchResponse{}, err
	}
	if resp.Results == nil {
		return BatchResponse{}, &Error{Op: op, Kind: KindMalformed, Err: errors.New("missing results")}
	}
	return resp, nil
}

// doRetry retries idempotent calls on transport errors and 5xx answers.
func (c *Client) doRetry(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	contentType := ""
	if payload != nil {
		contentType = "application/json"
	}
	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = c.do(ctx, op, method, path, payload, contentType)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[backend] %s failed (attempt %d/%d): %v", op, n+1, c.attempts, err)
		}),
	)
	if err != nil {
		// retry-go hands back the bare context error when cancelled mid-backoff.
		var apiErr *Error
		if !errors.As(err, &apiErr) {
			return nil, &Error{Op: op, Kind: KindTransport, Err: err}
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// A body that is not JSON is treated as {} and yields no message.
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &payload)
		return nil, &Error{Op: op, Kind: KindStatus, Status: resp.StatusCode, Message: strings.TrimSpace(payload.Error)}
	}
	return body, nil
}

// decode unmarshals a 2xx body. An empty body leaves v untouched.
func decode(op string, body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{Op: op, Kind: KindMalformed, Err: err}
	}
	return nil
}
