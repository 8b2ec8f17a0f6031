// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package roster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tdlog "github.com/ManuGH/teamdir/internal/log"
	"github.com/ManuGH/teamdir/internal/metrics"
	"github.com/ManuGH/teamdir/internal/platform/httpx"
	xnet "github.com/ManuGH/teamdir/internal/platform/net"
	"github.com/ManuGH/teamdir/internal/resilience"
)

// Source yields the current set of profiles.
type Source interface {
	Fetch(ctx context.Context) ([]Profile, error)
	Describe() string
}

// FileSource reads the roster from the local data directory.
type FileSource struct {
	Path string
}

func (s FileSource) Describe() string { return "file:" + s.Path }

func (s FileSource) Fetch(ctx context.Context) ([]Profile, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		metrics.IncRosterFetch("file", "error")
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	profiles, err := DecodeCSV(f)
	if err != nil {
		metrics.IncRosterFetch("file", "error")
		return nil, fmt.Errorf("decode roster %s: %w", s.Path, err)
	}
	metrics.IncRosterFetch("file", "success")
	return profiles, nil
}

// HTTPSourceConfig configures the remote roster source.
type HTTPSourceConfig struct {
	URL      string
	Policy   xnet.OutboundPolicy
	Timeout  time.Duration
	Retries  int
	Backoff  time.Duration
	MaxBytes int64
}

// HTTPSource fetches the roster from a remote URL. Every fetch passes
// the outbound policy, redirect hops included, and repeated upstream
// failures trip a circuit breaker shared across refresh runs.
type HTTPSource struct {
	cfg     HTTPSourceConfig
	client  *http.Client
	breaker *resilience.CircuitBreaker
}

func NewHTTPSource(cfg HTTPSourceConfig) *HTTPSource {
	check := func(req *http.Request) error {
		_, err := xnet.ValidateOutboundURL(req.Context(), req.URL.String(), cfg.Policy)
		return err
	}
	return &HTTPSource{
		cfg:     cfg,
		client:  httpx.NewFetchClient(cfg.Timeout, check),
		breaker: resilience.NewCircuitBreaker("roster", 3, 2, 5*time.Minute, 30*time.Second),
	}
}

func (s *HTTPSource) Describe() string { return "http:" + xnet.SanitizeURL(s.cfg.URL) }

// BreakerState exposes the breaker for status reporting.
func (s *HTTPSource) BreakerState() resilience.State { return s.breaker.GetState() }

func (s *HTTPSource) Fetch(ctx context.Context) ([]Profile, error) {
	target, err := xnet.ValidateOutboundURL(ctx, s.cfg.URL, s.cfg.Policy)
	if err != nil {
		metrics.IncRosterFetch("http", "blocked")
		return nil, fmt.Errorf("roster url rejected: %w", err)
	}

	logger := tdlog.WithComponentFromContext(ctx, "roster")

	var profiles []Profile
	var lastErr error
	for attempt := 0; attempt <= s.cfg.Retries; attempt++ {
		if attempt > 0 {
			backoff := s.backoffFor(attempt)
			logger.Debug().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Str("url", xnet.SanitizeURL(s.cfg.URL)).
				Msg("retrying roster fetch")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				metrics.IncRosterFetch("http", "error")
				return nil, ctx.Err()
			}
		}

		err := s.breaker.Execute(func() error {
			var fetchErr error
			profiles, fetchErr = s.fetchOnce(ctx, target)
			return fetchErr
		})
		if err == nil {
			metrics.IncRosterFetch("http", "success")
			return profiles, nil
		}
		if errors.Is(err, resilience.ErrCircuitOpen) {
			// Retrying against an open breaker is pointless; it will
			// reject until the reset timeout elapses.
			metrics.IncRosterFetch("http", "error")
			return nil, fmt.Errorf("roster fetch: %w", err)
		}
		lastErr = err
	}

	metrics.IncRosterFetch("http", "error")
	return nil, fmt.Errorf("roster fetch failed after %d retries: %w", s.cfg.Retries, lastErr)
}

func (s *HTTPSource) backoffFor(attempt int) time.Duration {
	base := s.cfg.Backoff
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return time.Duration(attempt*attempt) * base
}

func (s *HTTPSource) fetchOnce(ctx context.Context, target string) ([]Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build roster request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch roster: unexpected status %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if s.cfg.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, s.cfg.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read roster body: %w", err)
	}
	if s.cfg.MaxBytes > 0 && int64(len(data)) > s.cfg.MaxBytes {
		return nil, fmt.Errorf("roster body exceeds %d bytes", s.cfg.MaxBytes)
	}

	return DecodeCSV(bytes.NewReader(data))
}
