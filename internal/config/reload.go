// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	tdlog "github.com/ManuGH/teamdir/internal/log"
)

// PreApplyCheck inspects a candidate configuration after static validation
// and before it replaces the current one. Returning an error rejects the
// reload and keeps the running config.
type PreApplyCheck func(ctx context.Context, cfg AppConfig) error

// reloadDebounce coalesces the event bursts editors produce into one reload.
const reloadDebounce = 500 * time.Millisecond

// ConfigHolder hands out the active configuration and swaps it atomically
// on reload, whether triggered by the file watcher or the admin endpoint.
type ConfigHolder struct {
	mu         sync.RWMutex
	current    AppConfig
	loader     *Loader
	configPath string
	watcher    *fsnotify.Watcher
	logger     zerolog.Logger
	preApply   PreApplyCheck

	reloadMu        sync.RWMutex
	reloadListeners []chan<- AppConfig
}

// NewConfigHolder creates a new configuration holder with initial config.
func NewConfigHolder(initial AppConfig, loader *Loader, configPath string) *ConfigHolder {
	return &ConfigHolder{
		current:    initial,
		loader:     loader,
		configPath: configPath,
		logger:     tdlog.WithComponent("config"),
	}
}

// Get returns the current configuration (thread-safe read).
// The returned value is an alias-free copy; callers may mutate it.
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Clone(h.current)
}

// SetPreApplyCheck installs an environment check that runs on every reload.
// Call before StartWatcher or any Reload; the field is not synchronized.
func (h *ConfigHolder) SetPreApplyCheck(check PreApplyCheck) {
	h.preApply = check
}

// Reload loads the config file again and applies the result. A candidate
// that fails loading, validation or the environment check leaves the
// running config untouched; readers never see a half-applied config.
func (h *ConfigHolder) Reload(ctx context.Context) error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	if err := Validate(newCfg); err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.validation_failed").
			Msg("new configuration failed validation")
		return fmt.Errorf("validate config: %w", err)
	}

	// Re-check the environment the candidate config points at (directories,
	// TLS material, backend addresses) so a reload cannot swap in a config
	// the daemon could not have booted with.
	if h.preApply != nil {
		if err := h.preApply(ctx, newCfg); err != nil {
			h.logger.Error().
				Err(err).
				Str("event", "config.environment_check_failed").
				Msg("new configuration failed environment check")
			return fmt.Errorf("environment check: %w", err)
		}
	}

	h.mu.Lock()
	oldCfg := h.current
	h.current = newCfg
	h.mu.Unlock()

	h.notifyListeners(newCfg)
	h.logChanges(oldCfg, newCfg)

	h.logger.Info().
		Str("event", "config.reload_success").
		Msg("configuration reloaded successfully")

	return nil
}

// StartWatcher begins watching the config file for changes. With an empty
// configPath it is a no-op (config comes from ENV only).
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the parent directory rather than the file. Editors that save
	// by renaming a temp file over the target swap the inode, and a watch
	// on the file itself dies with the old inode.
	if err := watcher.Add(filepath.Dir(h.configPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config directory: %w", err)
	}

	h.watcher = watcher

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.configPath).
		Msg("watching config file for changes")

	go h.watchLoop(ctx)

	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context) {
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			if h.watcher != nil {
				_ = h.watcher.Close()
			}
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			// The whole directory is watched; skip sibling files. Write
			// covers in-place saves, Create covers the rename trick.
			if filepath.Clean(event.Name) != filepath.Clean(h.configPath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			h.logger.Debug().
				Str("event", "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().
						Err(err).
						Str("event", "config.auto_reload_failed").
						Msg("automatic config reload failed")
				}
			})

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop stops the config watcher (if running).
func (h *ConfigHolder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener registers a channel to receive config reload
// notifications. The channel receives the new config whenever a reload
// succeeds; the caller owns the channel.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

// notifyListeners fans the new config out to registered channels.
// Listeners that cannot keep up are skipped rather than blocking the reload.
func (h *ConfigHolder) notifyListeners(newCfg AppConfig) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- newCfg:
		default:
			h.logger.Warn().
				Str("event", "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

// logChanges emits one structured line per changed field, with secret
// values reduced to a redaction marker.
func (h *ConfigHolder) logChanges(old, newCfg AppConfig) {
	fields := []struct {
		name     string
		from, to string
	}{
		{"rosterPath", old.RosterPath, newCfg.RosterPath},
		{"rosterURL", MaskURL(old.RosterURL), MaskURL(newCfg.RosterURL)},
		{"photosDir", old.PhotosDir, newCfg.PhotosDir},
		{"logLevel", old.LogLevel, newCfg.LogLevel},
		{"thumbWidth", strconv.Itoa(old.Thumbs.Width), strconv.Itoa(newCfg.Thumbs.Width)},
		{"cacheBackend", old.Cache.Backend, newCfg.Cache.Backend},
		{"watch", strconv.FormatBool(old.Watch), strconv.FormatBool(newCfg.Watch)},
	}

	for _, f := range fields {
		if f.from == f.to {
			continue
		}
		h.logger.Info().
			Str("event", "config.changed").
			Str("field", f.name).
			Str("old", f.from).
			Str("new", f.to).
			Msg("config field changed")
	}
}
