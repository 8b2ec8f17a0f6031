// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/teamdir/internal/jobs"
	"github.com/ManuGH/teamdir/internal/log"
	"github.com/ManuGH/teamdir/internal/telemetry"
)

// StatusResponse is the /api/status payload: the last refresh outcome
// plus the serving state of the directory.
type StatusResponse struct {
	jobs.Status
	Ready           bool       `json:"ready"`
	SnapshotVersion string     `json:"snapshot_version,omitempty"`
	GeneratedAt     *time.Time `json:"generated_at,omitempty"`
	Breaker         string     `json:"breaker"`
	UptimeSeconds   int64      `json:"uptime_seconds"`
	AppVersion      string     `json:"app_version"`
}

// CountriesResponse is the /api/countries payload for the filter dropdown.
type CountriesResponse struct {
	Countries []string `json:"countries"`
	Total     int      `json:"total"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:        s.Status(),
		Ready:         s.dir.Ready(),
		Breaker:       string(s.cb.GetState()),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		AppVersion:    s.cfg.Version,
	}
	if snap := s.dir.Current(); snap.Version != "" {
		resp.SnapshotVersion = snap.Version
		resp.GeneratedAt = &snap.GeneratedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	span := trace.SpanFromContext(r.Context())

	if !s.dir.Ready() {
		writeServiceUnavailable(w, "directory not loaded yet")
		return
	}
	snap := s.dir.Current()

	q := r.URL.Query().Get("q")
	country := r.URL.Query().Get("country")

	// The snapshot version in the key makes stale entries unreachable
	// after a refresh; they age out via TTL instead of explicit
	// invalidation.
	key := "profiles:" + snap.Version + ":" + q + ":" + country

	if body, ok := s.respCache.Get(key); ok {
		span.SetAttributes(attribute.Bool(telemetry.SearchCachedKey, true))
		if country != "" {
			span.SetAttributes(attribute.String(telemetry.SearchCountryKey, country))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		_, _ = w.Write(body)
		return
	}

	res := snap.Search(q, country)
	span.SetAttributes(telemetry.SearchAttributes(country, res.Total, false)...)

	body, err := json.Marshal(res)
	if err != nil {
		logger.Error().Err(err).Str("event", "search.encode_error").Msg("failed to encode search result")
		writeInternalError(w)
		return
	}
	s.respCache.Set(key, body, s.respCacheTTL())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(body)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap := s.dir.Current()

	p, ok := snap.ByID[id]
	if !ok {
		writeNotFound(w, "no profile with this id")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	if !s.dir.Ready() {
		writeServiceUnavailable(w, "directory not loaded yet")
		return
	}
	snap := s.dir.Current()

	countries := snap.Countries
	if countries == nil {
		countries = []string{}
	}
	writeJSON(w, http.StatusOK, CountriesResponse{
		Countries: countries,
		Total:     len(countries),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Sanitized())
}
