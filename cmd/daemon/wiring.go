// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/teamdir/internal/api"
	"github.com/ManuGH/teamdir/internal/cache"
	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/directory"
	"github.com/ManuGH/teamdir/internal/health"
	"github.com/ManuGH/teamdir/internal/jobs"
	"github.com/ManuGH/teamdir/internal/library"
	"github.com/ManuGH/teamdir/internal/photos"
	"github.com/ManuGH/teamdir/internal/roster"
	"github.com/ManuGH/teamdir/internal/state"
)

// components are the long-lived stores and workers behind the API
// server. main owns their shutdown via manager hooks.
type components struct {
	dir       *directory.Store
	state     state.StateStore
	cache     cache.Cache
	renderer  *photos.Renderer
	prewarmer *photos.Prewarmer
	library   *library.Store // nil when the library index is disabled
	source    roster.Source
	health    *health.Manager
}

func (c *components) apiDeps() api.Deps {
	return api.Deps{
		Directory: c.dir,
		State:     c.state,
		Library:   c.library,
		Cache:     c.cache,
		Renderer:  c.renderer,
		Prewarmer: c.prewarmer,
		Source:    c.source,
		Health:    c.health,
	}
}

// buildComponents wires the stores, caches and workers from config. On
// error, anything already opened is closed again.
func buildComponents(cfg config.AppConfig, logger zerolog.Logger) (*components, error) {
	stateStore, err := state.Open(cfg.State.Backend, cfg.State.Dir, cfg.State.RunTTL)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	respCache, err := cache.New(cacheConfig(cfg), logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create cache: %w", err), stateStore.Close())
	}

	renderer, err := photos.NewRenderer(photos.RenderConfig{
		PhotosDir:     cfg.PhotosDir,
		ThumbDir:      cfg.Thumbs.Dir,
		Width:         cfg.Thumbs.Width,
		Quality:       cfg.Thumbs.Quality,
		MaxConcurrent: cfg.Thumbs.Workers,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create thumbnail renderer: %w", err), respCache.Close(), stateStore.Close())
	}

	prewarmer := photos.NewPrewarmer(renderer, photos.PrewarmConfig{
		Workers:       cfg.Thumbs.Workers,
		NegTTL:        cfg.Thumbs.NegativeTTL,
		RendersPerSec: cfg.Thumbs.RendersPerS,
	})
	prewarmer.Start()

	var lib *library.Store
	if cfg.Library.Enabled {
		lib, err = library.NewStore(cfg.Library.DBPath)
		if err != nil {
			prewarmer.Stop()
			return nil, errors.Join(fmt.Errorf("open library: %w", err), respCache.Close(), stateStore.Close())
		}
	}

	dir := directory.NewStore()

	hm := health.NewManager(cfg.Version)
	// Readiness gates on data: the service advertises ready only once a
	// snapshot, fresh or restored, is installed.
	hm.RegisterChecker(health.NewSnapshotChecker(dir.Ready))
	// Soft checks degrade rather than gate: losing the roster file or
	// redis breaks refreshes or caching, not serving.
	if strings.TrimSpace(cfg.RosterURL) == "" {
		hm.RegisterChecker(health.Soften(health.NewFileChecker("roster_file", cfg.RosterPath)))
	}
	if rc, ok := respCache.(*cache.RedisCache); ok {
		hm.RegisterChecker(health.Soften(health.NewPingChecker("cache", rc.HealthCheck)))
	}

	return &components{
		dir:       dir,
		state:     stateStore,
		cache:     respCache,
		renderer:  renderer,
		prewarmer: prewarmer,
		library:   lib,
		source:    buildSource(cfg),
		health:    hm,
	}, nil
}

// restoreState loads the persisted snapshot and last run outcome into
// the serving stores. Failures are logged, never fatal: a fresh start
// with an empty directory is always a valid fallback.
func restoreState(ctx context.Context, logger zerolog.Logger, comp *components, s *api.Server) {
	snap, ok, err := comp.state.LoadSnapshot(ctx)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("event", "state.restore_failed").
			Msg("could not restore persisted snapshot")
		return
	}
	if !ok {
		logger.Debug().Msg("no persisted snapshot to restore")
		return
	}

	comp.dir.Swap(snap)
	if runs, err := comp.state.ListRuns(ctx, 1); err == nil && len(runs) > 0 {
		s.SetStatus(statusFromRun(runs[0]))
	}

	logger.Info().
		Str("event", "state.restored").
		Int("profiles", len(snap.Profiles)).
		Str("snapshot_version", snap.Version).
		Time("generated_at", snap.GeneratedAt).
		Msg("restored directory snapshot from state store")
}

// cacheConfig maps the app cache settings onto the backend config.
func cacheConfig(cfg config.AppConfig) cache.Config {
	backend := cfg.Cache.Backend
	if backend == "none" {
		backend = "noop"
	}
	return cache.Config{
		Backend: backend,
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		},
	}
}

// buildSource selects the roster source: a remote URL when configured,
// the local file otherwise.
func buildSource(cfg config.AppConfig) roster.Source {
	if strings.TrimSpace(cfg.RosterURL) == "" {
		return roster.FileSource{Path: cfg.RosterPath}
	}
	return roster.NewHTTPSource(roster.HTTPSourceConfig{
		URL:      cfg.RosterURL,
		Policy:   cfg.Outbound.Policy(),
		Timeout:  cfg.Fetch.Timeout,
		Retries:  cfg.Fetch.Retries,
		Backoff:  cfg.Fetch.Backoff,
		MaxBytes: cfg.Fetch.MaxBytes,
	})
}

// statusFromRun rebuilds the API status from a persisted run record.
func statusFromRun(run state.Run) jobs.Status {
	return jobs.Status{
		LastRun:   run.FinishedAt,
		Profiles:  run.Profiles,
		Countries: run.Countries,
		Photos:    run.Photos,
		Matched:   run.Matched,
		Error:     run.Error,
	}
}
