package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"watchwise/handlers"
	"watchwise/models"
	"watchwise/services/dashboard"
	"watchwise/services/watchlist"

	"github.com/gorilla/mux"
)

type stubSession struct {
	calls []string
}

func (s *stubSession) record(call string) { s.calls = append(s.calls, call) }

func (s *stubSession) Snapshot() dashboard.Snapshot { return dashboard.Snapshot{} }
func (s *stubSession) Refresh(context.Context) error {
	s.record("refresh")
	return nil
}

func (s *stubSession) SetQuery(_ context.Context, q watchlist.Query) error {
	s.record("query:" + q.Sort)
	return nil
}

func (s *stubSession) UpdateStatus(_ context.Context, id string, _ models.WatchStatus) error {
	s.record("status:" + id)
	return nil
}

func (s *stubSession) Remove(_ context.Context, id string) error {
	s.record("remove:" + id)
	return nil
}

func (s *stubSession) Import(context.Context, string, int64, io.Reader) (models.ImportResult, error) {
	s.record("import")
	return models.ImportResult{}, nil
}

func (s *stubSession) ToggleServices(context.Context, []models.ServiceToggle) error {
	s.record("toggle")
	return nil
}

func (s *stubSession) CheckAvailability(_ context.Context, id string) (models.ItemAvailability, error) {
	s.record("check:" + id)
	return models.ItemAvailability{ItemID: id}, nil
}

func newRouter(session *stubSession) *mux.Router {
	r := mux.NewRouter()
	Register(r, handlers.NewDashboardHandler(session), nil)
	return r
}

func TestRoutes(t *testing.T) {
	cases := []struct {
		method, path, body string
		want               string
	}{
		{method: http.MethodPost, path: "/api/refresh", want: "refresh"},
		{method: http.MethodPut, path: "/api/watchlist/query", body: `{"sort":"title"}`, want: "query:title"},
		{method: http.MethodPatch, path: "/api/watchlist/a1", body: `{"status":"watching"}`, want: "status:a1"},
		{method: http.MethodDelete, path: "/api/watchlist/a1", want: "remove:a1"},
		{method: http.MethodPost, path: "/api/watchlist/a1/availability", want: "check:a1"},
		{method: http.MethodPatch, path: "/api/services", body: `{"toggle":[{"code":"max","active":true}]}`, want: "toggle"},
	}
	for _, tc := range cases {
		session := &stubSession{}
		rec := httptest.NewRecorder()
		newRouter(session).ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: expected status 200, got %d", tc.method, tc.path, rec.Code)
		}
		if len(session.calls) != 1 || session.calls[0] != tc.want {
			t.Fatalf("%s %s: expected call %q, got %v", tc.method, tc.path, tc.want, session.calls)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&stubSession{}).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/watchlist/a1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PATCH") {
		t.Fatalf("expected PATCH in allowed methods, got %q", got)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&stubSession{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("unexpected health response %d: %s", rec.Code, rec.Body.String())
	}
}
