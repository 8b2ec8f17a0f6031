// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api provides the HTTP surface of teamdir: the JSON API, the
// photo and thumbnail routes, and the embedded web UI.
package api

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/teamdir/internal/cache"
	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/directory"
	"github.com/ManuGH/teamdir/internal/health"
	"github.com/ManuGH/teamdir/internal/jobs"
	"github.com/ManuGH/teamdir/internal/library"
	"github.com/ManuGH/teamdir/internal/photos"
	"github.com/ManuGH/teamdir/internal/ratelimit"
	"github.com/ManuGH/teamdir/internal/resilience"
	"github.com/ManuGH/teamdir/internal/roster"
	"github.com/ManuGH/teamdir/internal/state"
)

// Server handles HTTP requests against the current directory snapshot.
// It owns no listeners; the daemon wires it into an http.Server.
type Server struct {
	mu         sync.RWMutex
	refreshing atomic.Bool // serialize refreshes via atomic flag
	cfg        config.AppConfig
	status     jobs.Status

	dir       *directory.Store
	stateStr  state.StateStore
	library   *library.Store // nil when the library index is disabled
	respCache cache.Cache
	renderer  *photos.Renderer
	prewarmer *photos.Prewarmer // nil when prewarming is disabled
	source    roster.Source
	health    *health.Manager
	cb        *resilience.CircuitBreaker
	limiter   *ratelimit.Limiter // nil when rate limiting is disabled
	auditLog  AuditLogger        // nil disables the audit trail

	// cacheTTL holds the response cache TTL in nanoseconds; an atomic
	// because config reloads retune it while handlers read it.
	cacheTTL atomic.Int64

	// refreshFn allows tests to stub the refresh operation; defaults to jobs.Refresh
	refreshFn func(context.Context, config.AppConfig, jobs.Deps) (*jobs.Status, error)

	startTime time.Time
}

// Deps bundles the shared components the server serves from. Directory,
// State, Cache, Renderer and Source are required; Library and Prewarmer
// are optional and nil disables their routes or behavior.
type Deps struct {
	Directory *directory.Store
	State     state.StateStore
	Library   *library.Store
	Cache     cache.Cache
	Renderer  *photos.Renderer
	Prewarmer *photos.Prewarmer
	Source    roster.Source
	Health    *health.Manager
}

// AuditLogger records operations that change what the service serves.
type AuditLogger interface {
	ConfigReload(actor, result string, details map[string]string)
	RefreshStart(actor, source string)
	RefreshComplete(actor string, profiles, matched int, durationMS int64)
	RefreshError(actor, reason string)
}

// ServerOption allows functional configuration of the Server.
type ServerOption func(*Server)

// WithRefreshFunc overrides the refresh implementation (for tests).
func WithRefreshFunc(fn func(context.Context, config.AppConfig, jobs.Deps) (*jobs.Status, error)) ServerOption {
	return func(s *Server) {
		s.refreshFn = fn
	}
}

// WithAuditLogger enables the audit trail for refresh and reload
// operations.
func WithAuditLogger(l AuditLogger) ServerOption {
	return func(s *Server) {
		s.auditLog = l
	}
}

// WithClock overrides the start time (for tests asserting uptime).
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.startTime = now()
	}
}

// New constructs the API server around the given dependencies.
func New(cfg config.AppConfig, deps Deps, opts ...ServerOption) *Server {
	s := &Server{
		cfg:       cfg,
		dir:       deps.Directory,
		stateStr:  deps.State,
		library:   deps.Library,
		respCache: deps.Cache,
		renderer:  deps.Renderer,
		prewarmer: deps.Prewarmer,
		source:    deps.Source,
		health:    deps.Health,
		refreshFn: jobs.Refresh,
		startTime: time.Now(),
		// Breaker settings follow the refresh cadence: five failed runs
		// inside a minute trip it, half-open after 30s.
		cb: resilience.NewCircuitBreaker("refresh", 5, 10, 60*time.Second, 30*time.Second),
	}
	if s.respCache == nil {
		s.respCache = cache.NewNoOpCache()
	}
	s.cacheTTL.Store(int64(cfg.Cache.TTL))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// respCacheTTL returns the current response cache TTL.
func (s *Server) respCacheTTL() time.Duration {
	return time.Duration(s.cacheTTL.Load())
}

// jobDeps assembles the pipeline dependencies of one refresh run.
func (s *Server) jobDeps() jobs.Deps {
	return jobs.Deps{
		Source:    s.source,
		Directory: s.dir,
		State:     s.stateStr,
		Library:   s.library,
		Prewarmer: s.prewarmer,
	}
}

// Status returns a copy of the last refresh status.
func (s *Server) Status() jobs.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus installs a status, used when restoring persisted state at boot.
func (s *Server) SetStatus(st jobs.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}
