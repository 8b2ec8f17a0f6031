// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package jobs runs the refresh pipeline: load the roster, scan photos,
// match them, build and install the directory snapshot, persist state
// and write derived artifacts.
package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/directory"
	"github.com/ManuGH/teamdir/internal/library"
	tdlog "github.com/ManuGH/teamdir/internal/log"
	"github.com/ManuGH/teamdir/internal/metrics"
	"github.com/ManuGH/teamdir/internal/photos"
	"github.com/ManuGH/teamdir/internal/roster"
	"github.com/ManuGH/teamdir/internal/state"
	"github.com/ManuGH/teamdir/internal/validate"
)

// ArtifactName is the JSON export written to the data directory after
// every successful refresh.
const ArtifactName = "profiles.json"

// Refresh performs the complete refresh cycle: load roster + scan photos →
// match → build snapshot → write artifact → swap → persist
func Refresh(ctx context.Context, cfg config.AppConfig, deps Deps) (*Status, error) {
	// One ID ties the run's log lines to its entry in run history.
	ctx = tdlog.ContextWithRunID(ctx, uuid.NewString())
	logger := tdlog.WithComponentFromContext(ctx, "jobs")
	started := deps.now()

	logger.Info().
		Str("event", "refresh.start").
		Str("source", deps.Source.Describe()).
		Str("photos_dir", cfg.PhotosDir).
		Msg("starting refresh")

	if err := validateConfig(cfg); err != nil {
		return nil, failRefresh(ctx, deps, logger, started, "config", err)
	}

	var (
		profiles []roster.Profile
		files    []photos.File
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if profiles, err = deps.Source.Fetch(gctx); err != nil {
			return fmt.Errorf("roster: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if files, err = photos.Scan(cfg.PhotosDir); err != nil {
			return fmt.Errorf("scan photos: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, failRefresh(ctx, deps, logger, started, "load", err)
	}

	matched := photos.Match(profiles, files)
	snap := directory.BuildSnapshot(profiles, started)

	// Artifact first: a broken data dir fails the run before the swap,
	// so the API keeps serving the previous snapshot.
	artifactPath := filepath.Join(cfg.DataDir, ArtifactName)
	if err := writeArtifact(ctx, artifactPath, snap); err != nil {
		return nil, failRefresh(ctx, deps, logger, started, "artifact", err)
	}
	logger.Info().
		Str("event", "artifact.write").
		Str("path", artifactPath).
		Int("profiles", len(snap.Profiles)).
		Msg("profiles artifact written")

	deps.Directory.Swap(snap)

	finished := deps.now()
	duration := finished.Sub(started)

	// Post-swap persistence is best effort: the snapshot is already live
	// and a storage hiccup must not fail the run that produced it.
	if deps.State != nil {
		if err := deps.State.SaveSnapshot(ctx, snap); err != nil {
			metrics.RecordRefreshFailure("persist")
			logger.Warn().
				Err(err).
				Str("event", "refresh.persist_failed").
				Msg("snapshot not persisted")
		}
		run := state.Run{
			ID:         tdlog.RunIDFromContext(ctx),
			StartedAt:  started,
			FinishedAt: finished,
			Outcome:    "ok",
			Profiles:   len(profiles),
			Countries:  len(snap.Countries),
			Photos:     len(files),
			Matched:    matched,
		}
		if err := deps.State.RecordRun(ctx, run); err != nil {
			logger.Warn().
				Err(err).
				Str("event", "refresh.run_record_failed").
				Msg("run not recorded")
		}
	}

	if deps.Library != nil && cfg.Library.Enabled {
		items := library.ItemsFromScan(files, photos.MatchedFiles(profiles), started)
		if err := deps.Library.Reindex(ctx, started, items); err != nil {
			metrics.RecordRefreshFailure("library")
			logger.Warn().
				Err(err).
				Str("event", "refresh.library_failed").
				Msg("photo index not updated")
		}
	}

	if deps.Prewarmer != nil {
		queued := 0
		for _, p := range snap.Profiles {
			if p.HasPhoto && deps.Prewarmer.Enqueue(ctx, p.Photo) {
				queued++
			}
		}
		logger.Debug().
			Str("event", "refresh.prewarm").
			Int("queued", queued).
			Msg("thumbnails queued for prewarm")
	}

	metrics.RecordRefreshOutcome("ok")
	metrics.ObserveRefreshDuration(duration)
	metrics.SetLastRefresh(finished)
	metrics.RecordSnapshotCounts(len(profiles), matched, len(snap.Countries), len(files))

	status := &Status{
		LastRun:   finished,
		Profiles:  len(profiles),
		Countries: len(snap.Countries),
		Photos:    len(files),
		Matched:   matched,
	}
	logger.Info().
		Str("event", "refresh.complete").
		Int("profiles", status.Profiles).
		Int("countries", status.Countries).
		Int("photos", status.Photos).
		Int("matched", status.Matched).
		Str("version", snap.Version).
		Dur("duration", duration).
		Msg("refresh completed")
	return status, nil
}

// failRefresh records the failed run, updates metrics and returns err.
func failRefresh(ctx context.Context, deps Deps, logger zerolog.Logger, started time.Time, stage string, err error) error {
	finished := deps.now()
	metrics.RecordRefreshOutcome("failed")
	metrics.RecordRefreshFailure(stage)

	if deps.State != nil {
		run := state.Run{
			ID:         tdlog.RunIDFromContext(ctx),
			StartedAt:  started,
			FinishedAt: finished,
			Outcome:    "failed",
			Error:      err.Error(),
		}
		if rerr := deps.State.RecordRun(ctx, run); rerr != nil {
			logger.Warn().
				Err(rerr).
				Str("event", "refresh.run_record_failed").
				Msg("run not recorded")
		}
	}

	logger.Error().
		Err(err).
		Str("event", "refresh.failed").
		Str("stage", stage).
		Dur("duration", finished.Sub(started)).
		Msg("refresh failed")
	return err
}

// validateConfig validates the fields the refresh pipeline touches
func validateConfig(cfg config.AppConfig) error {
	v := validate.New()
	v.Directory("DataDir", cfg.DataDir, true)
	v.Directory("PhotosDir", cfg.PhotosDir, true)
	return v.Err()
}
