// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/directory"
	"github.com/ManuGH/teamdir/internal/jobs"
	"github.com/ManuGH/teamdir/internal/resilience"
)

func stubRefresh(st *jobs.Status, err error) func(context.Context, config.AppConfig, jobs.Deps) (*jobs.Status, error) {
	return func(ctx context.Context, cfg config.AppConfig, deps jobs.Deps) (*jobs.Status, error) {
		if err != nil {
			return nil, err
		}
		deps.Directory.Swap(directory.BuildSnapshot(testProfiles(), time.Now()))
		return st, nil
	}
}

func TestRefresh_Success(t *testing.T) {
	want := &jobs.Status{LastRun: time.Now().UTC(), Profiles: 3, Countries: 3, Photos: 2, Matched: 2}
	s := newTestServer(t, WithRefreshFunc(stubRefresh(want, nil)))

	w := doRequest(t, s, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", w.Code, w.Body.String())
	}

	resp := decodeBody[jobs.Status](t, w)
	if resp.Profiles != 3 || resp.Matched != 2 {
		t.Errorf("unexpected status in response: %+v", resp)
	}
	if got := s.Status(); got.Profiles != 3 {
		t.Errorf("installed status profiles = %d, want 3", got.Profiles)
	}
	if !s.dir.Ready() {
		t.Error("expected a snapshot after a successful refresh")
	}
}

func TestRefresh_Conflict(t *testing.T) {
	s := newTestServer(t)
	s.refreshing.Store(true)
	defer s.refreshing.Store(false)

	w := doRequest(t, s, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After = %q, want 30", got)
	}

	body := decodeBody[map[string]string](t, w)
	if body["error"] != "conflict" {
		t.Errorf("error = %q, want conflict", body["error"])
	}
}

func TestRefresh_FailureHidesDetail(t *testing.T) {
	s := newTestServer(t, WithRefreshFunc(stubRefresh(nil, errors.New("csv: parse failure at row 7"))))

	w := doRequest(t, s, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	body := decodeBody[map[string]string](t, w)
	if body["detail"] != "Internal server error" {
		t.Errorf("detail = %q, internal error must not leak", body["detail"])
	}
	if got := s.Status().Error; got != "refresh operation failed" {
		t.Errorf("status error = %q", got)
	}
}

func TestRefresh_CircuitOpenReturns503(t *testing.T) {
	s := newTestServer(t, WithRefreshFunc(stubRefresh(nil, errors.New("upstream down"))))

	// Trip the breaker through the non-HTTP entry point; the refresh
	// route's own per-minute limiter would kick in before eleven POSTs.
	for i := 0; i < 10; i++ {
		if _, err := s.RunRefresh(context.Background()); err == nil {
			t.Fatalf("run %d: expected error", i)
		}
	}
	if got := s.cb.GetState(); got != resilience.StateOpen {
		t.Fatalf("breaker state = %q, want open", got)
	}

	w := doRequest(t, s, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503\nbody: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After = %q, want 30", got)
	}

	body := decodeBody[map[string]string](t, w)
	if body["error"] != "unavailable" {
		t.Errorf("error = %q, want unavailable", body["error"])
	}
}

func TestRunRefresh_Conflict(t *testing.T) {
	s := newTestServer(t)
	s.refreshing.Store(true)
	defer s.refreshing.Store(false)

	_, err := s.RunRefresh(context.Background())
	if !errors.Is(err, ErrRefreshInProgress) {
		t.Fatalf("err = %v, want ErrRefreshInProgress", err)
	}
}

func TestRunRefresh_ReleasesFlag(t *testing.T) {
	want := &jobs.Status{Profiles: 3}
	s := newTestServer(t, WithRefreshFunc(stubRefresh(want, nil)))

	for i := 0; i < 2; i++ {
		st, err := s.RunRefresh(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if st.Profiles != 3 {
			t.Fatalf("run %d: profiles = %d", i, st.Profiles)
		}
	}
}

func TestRefresh_AuditTrail(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		rec := &recordingAudit{}
		want := &jobs.Status{Profiles: 3, Matched: 2}
		s := newTestServer(t, WithRefreshFunc(stubRefresh(want, nil)), WithAuditLogger(rec))

		if w := doRequest(t, s, http.MethodPost, "/api/refresh"); w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		events := rec.snapshot()
		if len(events) != 2 || events[0] != "refresh.start" || events[1] != "refresh.success" {
			t.Errorf("audit events = %v, want [refresh.start refresh.success]", events)
		}
	})

	t.Run("failure", func(t *testing.T) {
		rec := &recordingAudit{}
		s := newTestServer(t, WithRefreshFunc(stubRefresh(nil, errors.New("boom"))), WithAuditLogger(rec))

		if w := doRequest(t, s, http.MethodPost, "/api/refresh"); w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}

		events := rec.snapshot()
		if len(events) != 2 || events[0] != "refresh.start" || events[1] != "refresh.error" {
			t.Errorf("audit events = %v, want [refresh.start refresh.error]", events)
		}
	})
}
