// SPDX-License-Identifier: MIT

// Package health implements the daemon's liveness and readiness probes.
// A Manager aggregates named component checkers: liveness reports the
// process alive as long as it can answer, readiness reduces the checker
// results so an unhealthy component takes the instance out of rotation
// without restarting it.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/ManuGH/teamdir/internal/log"
)

// Status grades a component or the service as a whole.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of a single component probe.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    int64                  `json:"uptime_seconds"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessResponse is the /readyz body.
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker is a named component probe.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs the registered checkers and serves the probe endpoints.
type Manager struct {
	version   string
	startTime time.Time
	checkers  []Checker
}

// NewManager creates a probe manager reporting the given build version.
func NewManager(version string) *Manager {
	return &Manager{
		version:   version,
		startTime: time.Now(),
	}
}

// RegisterChecker adds a component probe. Register everything during
// boot; the checker list is not guarded against concurrent mutation.
func (m *Manager) RegisterChecker(checker Checker) {
	m.checkers = append(m.checkers, checker)
}

// runChecks runs every registered checker and reduces the results to an
// overall status: any unhealthy component wins, then any degraded one.
func (m *Manager) runChecks(ctx context.Context) (map[string]CheckResult, Status) {
	checks := make(map[string]CheckResult, len(m.checkers))
	overall := StatusHealthy

	for _, checker := range m.checkers {
		result := checker.Check(ctx)
		checks[checker.Name()] = result

		switch result.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}

	return checks, overall
}

// Health answers the liveness probe. The process is alive by virtue of
// answering; component checks run only when verbose is set.
func (m *Manager) Health(ctx context.Context, verbose bool) HealthResponse {
	resp := HealthResponse{
		Status:    StatusHealthy,
		Version:   m.version,
		Uptime:    int64(time.Since(m.startTime).Seconds()),
		Timestamp: time.Now(),
	}

	if verbose && len(m.checkers) > 0 {
		resp.Checks, resp.Status = m.runChecks(ctx)
	}

	return resp
}

// Ready answers the readiness probe. A degraded component keeps the
// instance in rotation; an unhealthy one takes it out.
func (m *Manager) Ready(ctx context.Context) ReadinessResponse {
	resp := ReadinessResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	}

	if len(m.checkers) == 0 {
		// Nothing registered, nothing to wait for.
		return resp
	}

	resp.Checks, resp.Status = m.runChecks(ctx)
	resp.Ready = resp.Status != StatusUnhealthy

	return resp
}

// ServeHealth handles GET /healthz. Component checks run only when the
// client asks with ?verbose=true, so the probe stays cheap.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "health")
	verbose := r.URL.Query().Get("verbose") == "true"

	resp := m.Health(r.Context(), verbose)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK) // liveness never reports down while it can answer

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Str("event", "health.encode_error").Msg("failed to encode health response")
	}

	logger.Debug().
		Str("event", "health.checked").
		Str("status", string(resp.Status)).
		Bool("verbose", verbose).
		Msg("health check performed")
}

// ServeReady handles GET /readyz.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "readiness")

	resp := m.Ready(r.Context())

	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Str("event", "readiness.encode_error").Msg("failed to encode readiness response")
	}

	logger.Debug().
		Str("event", "readiness.checked").
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("readiness check performed")
}

// FileChecker probes a file the service reads, such as a roster CSV on
// local disk. An empty file is degraded rather than unhealthy because
// the service can keep serving the previous snapshot.
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a file probe. An empty path reports healthy so
// the checker can be registered unconditionally.
func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{
		name: name,
		path: path,
	}
}

func (c *FileChecker) Name() string {
	return c.name
}

func (c *FileChecker) Check(_ context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "not configured (optional)",
		}
	}

	info, err := os.Stat(c.path)
	switch {
	case os.IsNotExist(err):
		return CheckResult{
			Status:  StatusUnhealthy,
			Error:   "file not found",
			Message: c.path,
		}
	case err != nil:
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  err.Error(),
		}
	case info.IsDir():
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  "expected file, got directory",
		}
	case info.Size() == 0:
		return CheckResult{
			Status:  StatusDegraded,
			Message: "file is empty",
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Message: "file exists and readable",
	}
}

// SnapshotChecker reports whether a directory snapshot has been installed.
// Until the first successful refresh the service has nothing to serve.
type SnapshotChecker struct {
	ready func() bool
}

// NewSnapshotChecker creates a checker backed by the directory store.
func NewSnapshotChecker(ready func() bool) *SnapshotChecker {
	return &SnapshotChecker{ready: ready}
}

func (c *SnapshotChecker) Name() string {
	return "snapshot"
}

func (c *SnapshotChecker) Check(_ context.Context) CheckResult {
	if c.ready == nil || !c.ready() {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "no directory snapshot installed yet",
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "directory snapshot installed",
	}
}

// LastRefreshChecker reports the outcome and age of the most recent
// refresh run.
type LastRefreshChecker struct {
	getLastRefresh func() (time.Time, string)
}

// NewLastRefreshChecker creates a checker fed by a status getter that
// returns the last refresh time and its error, if any.
func NewLastRefreshChecker(getLastRefresh func() (time.Time, string)) *LastRefreshChecker {
	return &LastRefreshChecker{
		getLastRefresh: getLastRefresh,
	}
}

func (c *LastRefreshChecker) Name() string {
	return "last_refresh"
}

func (c *LastRefreshChecker) Check(_ context.Context) CheckResult {
	lastRefresh, lastError := c.getLastRefresh()

	if lastRefresh.IsZero() {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "no successful refresh yet",
		}
	}

	if lastError != "" {
		// A failed refresh leaves the previous snapshot serving, so it
		// degrades the instance rather than pulling it from rotation.
		return CheckResult{
			Status:  StatusDegraded,
			Error:   lastError,
			Message: "last refresh failed",
		}
	}

	if time.Since(lastRefresh) > 24*time.Hour {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "last successful refresh over 24h ago",
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Message: "last refresh successful",
	}
}

// PingChecker wraps a backend reachability probe (redis cache, state store)
// as a health check.
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

// NewPingChecker creates a checker from a ping function. A nil ping is
// reported healthy so optional backends can register unconditionally.
func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{
		name: name,
		ping: ping,
	}
}

func (c *PingChecker) Name() string {
	return c.name
}

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if c.ping == nil {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "not configured (optional)",
		}
	}
	if err := c.ping(ctx); err != nil {
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  err.Error(),
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "backend reachable",
	}
}

// Soften caps a checker's severity at degraded, for components whose
// failure must not take the instance out of rotation: a lost roster
// file or an unreachable redis breaks refreshes or caching, while the
// installed snapshot keeps serving.
func Soften(c Checker) Checker {
	return softChecker{inner: c}
}

type softChecker struct {
	inner Checker
}

func (s softChecker) Name() string {
	return s.inner.Name()
}

func (s softChecker) Check(ctx context.Context) CheckResult {
	result := s.inner.Check(ctx)
	if result.Status == StatusUnhealthy {
		result.Status = StatusDegraded
	}
	return result
}
