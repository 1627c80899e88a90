package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/store"
	"go.uber.org/zap"
)

type stubAssistant struct {
	loc   domain.Location
	err   error
	names []string
}

func (a *stubAssistant) Geocode(context.Context, string, string) (domain.Location, error) {
	return a.loc, a.err
}

func (a *stubAssistant) Recommend(_ context.Context, day domain.Day, names []string) (string, error) {
	a.names = names
	return "try " + string(day), a.err
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "trip.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := httptest.NewServer(New(st, opts).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func do(t *testing.T, method, url string, body any, header http.Header) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSpotsCRUD(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	resp := do(t, http.MethodPost, srv.URL+"/spots", []domain.Row{
		{Name: "Chihkan Tower", Day: "Day 1", SortOrder: 0},
		{Name: "Shennong Street", Day: "Day 1", SortOrder: 1},
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /spots status = %d, want 201", resp.StatusCode)
	}
	var inserted []domain.Row
	json.NewDecoder(resp.Body).Decode(&inserted)
	if len(inserted) != 2 || inserted[0].ID == "" {
		t.Fatalf("inserted = %+v", inserted)
	}
	id := inserted[0].ID

	resp = do(t, http.MethodPatch, srv.URL+"/spots/"+id, map[string]any{"notes": "go early", "is_visited": true}, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PATCH status = %d, want 204", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, srv.URL+"/spots/"+id[:8], nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET by prefix status = %d, want 200", resp.StatusCode)
	}
	var got domain.Row
	json.NewDecoder(resp.Body).Decode(&got)
	if got.Notes != "go early" || !got.IsVisited || got.Name != "Chihkan Tower" {
		t.Fatalf("patched row = %+v", got)
	}

	resp = do(t, http.MethodPost, srv.URL+"/spots/upsert", UpsertRequest{
		Rows: []domain.Row{
			{ID: inserted[1].ID, Name: "Shennong Street", Day: "Day 1", SortOrder: 0},
			{ID: id, Name: "Chihkan Tower", Day: "Day 1", SortOrder: 1},
		},
		Columns: []string{"id", "name", "day", "sort_order"},
	}, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("upsert status = %d, want 204", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, srv.URL+"/spots", nil, nil)
	var rows []domain.Row
	json.NewDecoder(resp.Body).Decode(&rows)
	if len(rows) != 2 || rows[0].Name != "Shennong Street" {
		t.Fatalf("rows after upsert = %+v", rows)
	}
	if rows[1].Notes != "go early" {
		t.Fatalf("upsert overwrote notes: %+v", rows[1])
	}

	resp = do(t, http.MethodDelete, srv.URL+"/spots/"+id, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", resp.StatusCode)
	}
	resp = do(t, http.MethodDelete, srv.URL+"/spots/"+id, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second DELETE status = %d, want 404", resp.StatusCode)
	}
}

func TestSpotsValidation(t *testing.T) {
	srv, st := newTestServer(t, Options{})
	inserted, err := st.Insert(context.Background(), []domain.Row{{Name: "x", Day: "Other"}})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"empty insert", http.MethodPost, "/spots", []domain.Row{}, http.StatusBadRequest},
		{"nameless insert", http.MethodPost, "/spots", []domain.Row{{Day: "Day 1"}}, http.StatusBadRequest},
		{"bad day", http.MethodPost, "/spots", []domain.Row{{Name: "x", Day: "Day 7"}}, http.StatusBadRequest},
		{"unknown column", http.MethodPatch, "/spots/" + inserted[0].ID, map[string]any{"rating": 5}, http.StatusBadRequest},
		{"fractional order", http.MethodPatch, "/spots/" + inserted[0].ID, map[string]any{"sort_order": 1.5}, http.StatusBadRequest},
		{"missing id", http.MethodPatch, "/spots/nope", map[string]any{"notes": "x"}, http.StatusNotFound},
		{"missing prefix", http.MethodGet, "/spots/zzz", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, srv.URL+tt.path, tt.body, nil)
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestAuthRequiredExceptHealth(t *testing.T) {
	srv, _ := newTestServer(t, Options{AuthSecret: "s3cret"})

	if resp := do(t, http.MethodGet, srv.URL+"/health", nil, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/spots", nil, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	bad, _ := MintToken("other", "cli", time.Minute)
	h := http.Header{"Authorization": {"Bearer " + bad}}
	if resp := do(t, http.MethodGet, srv.URL+"/spots", nil, h); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong-secret status = %d, want 401", resp.StatusCode)
	}

	good, err := MintToken("s3cret", "cli", time.Minute)
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	h = http.Header{"Authorization": {"Bearer " + good}}
	if resp := do(t, http.MethodGet, srv.URL+"/spots", nil, h); resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", resp.StatusCode)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tok, err := MintToken("k", "cli", -time.Minute)
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	if err := ParseToken("k", tok); err == nil {
		t.Fatalf("ParseToken accepted an expired token")
	}
}

func TestGeocodeAndRecommend(t *testing.T) {
	a := &stubAssistant{loc: domain.Location{Lat: 23, Lng: 120.2, StandardAddress: "std"}}
	srv, st := newTestServer(t, Options{Geocoder: a, Recommender: a})
	st.Insert(context.Background(), []domain.Row{
		{Name: "Tree House", Day: "Day 2"},
		{Name: "Tower", Day: "Day 1"},
	})

	resp := do(t, http.MethodPost, srv.URL+"/geocode", GeocodeRequest{Name: "Tower"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("geocode status = %d", resp.StatusCode)
	}
	var loc domain.Location
	json.NewDecoder(resp.Body).Decode(&loc)
	if loc != a.loc {
		t.Fatalf("geocode = %+v, want %+v", loc, a.loc)
	}

	resp = do(t, http.MethodPost, srv.URL+"/recommend", RecommendRequest{Day: "2"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recommend status = %d", resp.StatusCode)
	}
	var rec RecommendResponse
	json.NewDecoder(resp.Body).Decode(&rec)
	if rec.Day != domain.Day2 || rec.Text != "try Day 2" {
		t.Fatalf("recommend = %+v", rec)
	}
	if len(a.names) != 1 || a.names[0] != "Tree House" {
		t.Fatalf("recommender saw %v, want [Tree House]", a.names)
	}

	a.err = errors.New("upstream down")
	if resp := do(t, http.MethodPost, srv.URL+"/geocode", GeocodeRequest{Name: "x"}, nil); resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("failing geocode status = %d, want 502", resp.StatusCode)
	}
}

func TestAssistantEndpointsUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	resp := do(t, http.MethodPost, srv.URL+"/geocode", GeocodeRequest{Name: "x"}, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestAssistantEndpointsRateLimited(t *testing.T) {
	a := &stubAssistant{loc: domain.Location{Lat: 1, Lng: 1}}
	srv, _ := newTestServer(t, Options{Geocoder: a, RatePerMinute: 2})

	var last int
	for i := 0; i < 3; i++ {
		last = do(t, http.MethodPost, srv.URL+"/geocode", GeocodeRequest{Name: "x"}, nil).StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, Options{AuthSecret: "s"})
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/spots", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPatch) {
		t.Fatalf("Allow-Methods = %q", resp.Header.Get("Access-Control-Allow-Methods"))
	}
}

func TestRecoverPanics(t *testing.T) {
	h := recoverPanics(zap.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
