// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ManuGH/teamdir/internal/jobs"
	"github.com/ManuGH/teamdir/internal/log"
	"github.com/ManuGH/teamdir/internal/resilience"
)

// ErrRefreshInProgress is returned by RunRefresh when another run holds
// the refresh flag.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// refreshTimeout bounds one pipeline run. A roster fetch plus a photo
// scan finishing later than this means something is wedged.
const refreshTimeout = 5 * time.Minute

// RunRefresh executes one refresh run if none is in flight. It is the
// non-HTTP entry point used for the initial refresh at boot and by the
// file watcher; the handler below shares the same core.
func (s *Server) RunRefresh(ctx context.Context) (*jobs.Status, error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		return nil, ErrRefreshInProgress
	}
	defer s.refreshing.Store(false)

	return s.executeRefresh(ctx)
}

// executeRefresh runs the pipeline behind the circuit breaker and
// installs the resulting status. Callers hold the refresh flag.
func (s *Server) executeRefresh(ctx context.Context) (*jobs.Status, error) {
	var st *jobs.Status
	err := s.cb.Execute(func() error {
		var err error
		st, err = s.refreshFn(ctx, s.cfg, s.jobDeps())
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			s.mu.Lock()
			// Never expose internal error details through /api/status.
			s.status.Error = "refresh operation failed"
			s.mu.Unlock()
		}
		return nil, err
	}

	s.mu.Lock()
	s.status = *st
	s.mu.Unlock()
	return st, nil
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	// Try to acquire the refresh flag atomically; fail fast if already running
	if !s.refreshing.CompareAndSwap(false, true) {
		logger.Warn().
			Str("event", "refresh.conflict").
			Str("method", r.Method).
			Msg("refresh already in progress")

		w.Header().Set("Retry-After", "30")
		writeConflict(w, "A refresh operation is already in progress")
		return
	}
	defer s.refreshing.Store(false)

	actor := r.RemoteAddr
	if s.auditLog != nil {
		s.auditLog.RefreshStart(actor, s.source.Describe())
	}

	// Independent context: the job must survive the client going away.
	jobCtx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	clientDisconnected := make(chan struct{})
	go func() {
		<-r.Context().Done()
		if r.Context().Err() == context.Canceled {
			logger.Info().Msg("client disconnected during refresh (job continues)")
			close(clientDisconnected)
		}
	}()

	start := time.Now()
	st, err := s.executeRefresh(jobCtx)
	duration := time.Since(start)

	if err != nil {
		if s.auditLog != nil {
			s.auditLog.RefreshError(actor, err.Error())
		}

		if errors.Is(err, resilience.ErrCircuitOpen) {
			logger.Warn().
				Str("event", "refresh.circuit_open").
				Int64("duration_ms", duration.Milliseconds()).
				Msg("circuit breaker open for refresh; rejecting request")
			w.Header().Set("Retry-After", "30")
			writeServiceUnavailable(w, "Refresh temporarily disabled due to repeated failures")
			return
		}

		logger.Error().
			Err(err).
			Str("event", "refresh.failed").
			Str("method", r.Method).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("refresh failed")
		// Never expose internal error details to the client.
		writeInternalError(w)
		return
	}

	if s.auditLog != nil {
		s.auditLog.RefreshComplete(actor, st.Profiles, st.Matched, duration.Milliseconds())
	}

	select {
	case <-clientDisconnected:
		logger.Info().
			Str("event", "refresh.success").
			Int("profiles", st.Profiles).
			Int("matched", st.Matched).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("refresh completed despite client disconnect")
	default:
		logger.Info().
			Str("event", "refresh.success").
			Int("profiles", st.Profiles).
			Int("matched", st.Matched).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("refresh completed successfully")
	}

	writeJSON(w, http.StatusOK, st)
}
