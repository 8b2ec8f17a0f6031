// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ManuGH/teamdir/internal/directory"
	"github.com/ManuGH/teamdir/internal/jobs"
	"github.com/ManuGH/teamdir/internal/roster"
)

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, w.Body.String())
	}
	return v
}

func TestStatus_BeforeFirstRefresh(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	resp := decodeBody[StatusResponse](t, w)
	if resp.Ready {
		t.Error("expected ready=false before first refresh")
	}
	if resp.SnapshotVersion != "" {
		t.Errorf("unexpected snapshot version %q", resp.SnapshotVersion)
	}
	if resp.Breaker != "closed" {
		t.Errorf("breaker = %q, want closed", resp.Breaker)
	}
	if resp.AppVersion != "test" {
		t.Errorf("app_version = %q", resp.AppVersion)
	}
}

func TestStatus_AfterRefresh(t *testing.T) {
	s := newTestServer(t)
	snap := installSnapshot(t, s, testProfiles())
	s.SetStatus(jobs.Status{Profiles: 3, Countries: 3, Matched: 2})

	resp := decodeBody[StatusResponse](t, doRequest(t, s, http.MethodGet, "/api/status"))
	if !resp.Ready {
		t.Error("expected ready=true")
	}
	if resp.SnapshotVersion != snap.Version {
		t.Errorf("snapshot_version = %q, want %q", resp.SnapshotVersion, snap.Version)
	}
	if resp.Profiles != 3 || resp.Matched != 2 {
		t.Errorf("unexpected counts: %+v", resp)
	}
	if resp.GeneratedAt == nil {
		t.Error("expected generated_at to be set")
	}
}

func TestProfiles_NotReady(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/profiles")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}

	body := decodeBody[map[string]string](t, w)
	if body["error"] != "unavailable" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestProfiles_SearchByName(t *testing.T) {
	s := newTestServer(t)
	installSnapshot(t, s, testProfiles())

	w := doRequest(t, s, http.MethodGet, "/api/profiles?q=maria")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", got)
	}

	res := decodeBody[directory.SearchResult](t, w)
	if res.Total != 1 {
		t.Fatalf("total = %d, want 1", res.Total)
	}
	if res.Profiles[0].Name != "Maria Lopez" {
		t.Errorf("unexpected profile %q", res.Profiles[0].Name)
	}
}

func TestProfiles_ResponseCacheHit(t *testing.T) {
	s := newTestServer(t)
	installSnapshot(t, s, testProfiles())

	first := doRequest(t, s, http.MethodGet, "/api/profiles?q=tanaka")
	if got := first.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("first X-Cache = %q, want MISS", got)
	}

	second := doRequest(t, s, http.MethodGet, "/api/profiles?q=tanaka")
	if got := second.Header().Get("X-Cache"); got != "HIT" {
		t.Fatalf("second X-Cache = %q, want HIT", got)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("cached body differs from original")
	}
}

func TestProfiles_NewSnapshotBypassesCache(t *testing.T) {
	s := newTestServer(t)
	installSnapshot(t, s, testProfiles())

	doRequest(t, s, http.MethodGet, "/api/profiles?q=maria")

	// A refresh produces a new snapshot version; the old cache entry
	// must not serve the new generation.
	installSnapshot(t, s, testProfiles()[:1])

	w := doRequest(t, s, http.MethodGet, "/api/profiles?q=maria")
	if got := w.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache after snapshot swap = %q, want MISS", got)
	}
}

func TestProfiles_CountryFilter(t *testing.T) {
	s := newTestServer(t)
	installSnapshot(t, s, testProfiles())

	res := decodeBody[directory.SearchResult](t, doRequest(t, s, http.MethodGet, "/api/profiles?country=Ireland"))
	if res.Total != 1 {
		t.Fatalf("total = %d, want 1", res.Total)
	}
	if res.Profiles[0].ID != "james-obrien" {
		t.Errorf("unexpected profile %q", res.Profiles[0].ID)
	}
}

func TestProfiles_DiacriticFolding(t *testing.T) {
	s := newTestServer(t)
	installSnapshot(t, s, []roster.Profile{
		{ID: "renee-dubois", Name: "Renée Dubois", Birthday: "1 May", TownCounty: "Lyon", Country: "France"},
	})

	res := decodeBody[directory.SearchResult](t, doRequest(t, s, http.MethodGet, "/api/profiles?q=renee"))
	if res.Total != 1 {
		t.Fatalf("total = %d, want 1 (diacritics should fold)", res.Total)
	}
}

func TestProfile_ByID(t *testing.T) {
	s := newTestServer(t)
	installSnapshot(t, s, testProfiles())

	w := doRequest(t, s, http.MethodGet, "/api/profiles/aiko-tanaka")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	p := decodeBody[map[string]any](t, w)
	if p["name"] != "Aiko Tanaka" {
		t.Errorf("name = %v", p["name"])
	}
}

func TestProfile_UnknownID(t *testing.T) {
	s := newTestServer(t)
	installSnapshot(t, s, testProfiles())

	w := doRequest(t, s, http.MethodGet, "/api/profiles/nobody-here")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	body := decodeBody[map[string]string](t, w)
	if body["error"] != "not_found" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestCountries(t *testing.T) {
	s := newTestServer(t)
	installSnapshot(t, s, testProfiles())

	resp := decodeBody[CountriesResponse](t, doRequest(t, s, http.MethodGet, "/api/countries"))
	if resp.Total != 3 {
		t.Fatalf("total = %d, want 3", resp.Total)
	}
	want := []string{"Ireland", "Japan", "Spain"}
	for i, c := range want {
		if resp.Countries[i] != c {
			t.Errorf("countries[%d] = %q, want %q", i, resp.Countries[i], c)
		}
	}
}

func TestConfig_Sanitized(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/config")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	cfg := decodeBody[map[string]any](t, w)
	if cfg["version"] != "test" {
		t.Errorf("version = %v", cfg["version"])
	}
	if _, ok := cfg["data_dir"]; !ok {
		t.Error("expected data_dir in config response")
	}
}

func TestLibrary_Disabled(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/api/library/items", "/api/library/stats"} {
		w := doRequest(t, s, http.MethodGet, target)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, w.Code)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	if w := doRequest(t, s, http.MethodGet, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("/healthz = %d, want 200", w.Code)
	}
	// Readiness follows the snapshot: 503 before, 200 after.
	if w := doRequest(t, s, http.MethodGet, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz before snapshot = %d, want 503", w.Code)
	}

	installSnapshot(t, s, testProfiles())
	if w := doRequest(t, s, http.MethodGet, "/readyz"); w.Code != http.StatusOK {
		t.Errorf("/readyz after snapshot = %d, want 200", w.Code)
	}
}
