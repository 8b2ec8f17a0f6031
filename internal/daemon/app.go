// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/teamdir/internal/api"
	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/jobs"
)

// App owns the long-lived runtime lifecycle (file watchers, reload
// wiring, the initial refresh) and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.ConfigHolder
	apiServer    *api.Server
	cfg          config.AppConfig
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.ConfigHolder, apiServer *api.Server, cfg config.AppConfig) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		apiServer:    apiServer,
		cfg:          cfg,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Config watcher is best-effort: startup should not fail if watcher cannot be started.
	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}
	}

	// Reload-during-runtime wiring: apply the reloadable subset on every config swap.
	if a.cfgHolder != nil && a.apiServer != nil {
		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case newCfg := <-applyCh:
					a.apiServer.ApplyRuntimeConfig(newCfg)
				}
			}
		})
	}

	// SIGHUP trigger for manual reload.
	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")

					if err := a.cfgHolder.Reload(context.Background()); err != nil {
						a.logger.Warn().
							Err(err).
							Str("event", "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	// Roster and photo watcher feeds the refresh pipeline (best-effort;
	// without it refreshes are manual or boot-time only).
	if a.cfg.Watch && a.apiServer != nil {
		watcher, err := jobs.NewWatcher(a.cfg.RosterPath, a.cfg.PhotosDir, a.cfg.WatchDebounce, func() {
			a.triggerRefresh(ctx)
		})
		if err != nil {
			a.logger.Warn().
				Err(err).
				Str("event", "watch.start_failed").
				Msg("file watcher unavailable, refreshes are manual only")
		} else {
			watcher.Start(ctx)
		}
	}

	// Initial refresh so the directory serves data right after boot.
	if a.cfg.InitialRefresh && a.apiServer != nil {
		g.Go(func() error {
			a.triggerRefresh(ctx)
			return nil
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

// triggerRefresh runs one refresh and logs the outcome. A run already
// in flight is skipped quietly; a failed run warns but the daemon keeps
// serving the previous snapshot.
func (a *App) triggerRefresh(ctx context.Context) {
	st, err := a.apiServer.RunRefresh(ctx)
	switch {
	case errors.Is(err, api.ErrRefreshInProgress):
		a.logger.Debug().Str("event", "refresh.skipped").Msg("refresh already in progress")
	case err != nil:
		a.logger.Warn().Err(err).Str("event", "refresh.failed").Msg("refresh failed")
	default:
		a.logger.Info().
			Str("event", "refresh.success").
			Int("profiles", st.Profiles).
			Int("matched", st.Matched).
			Msg("refresh completed")
	}
}
