// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package jobs

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	tdlog "github.com/ManuGH/teamdir/internal/log"
)

// Watcher triggers a callback when the roster file or the photos
// directory changes, debouncing bursts of filesystem events into a
// single trigger.
type Watcher struct {
	rosterPath string
	photosDir  string
	debounce   time.Duration
	trigger    func()
	logger     zerolog.Logger

	watcher *fsnotify.Watcher

	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher sets up filesystem watches for rosterPath and photosDir.
// The trigger callback runs at most once per debounce window.
func NewWatcher(rosterPath, photosDir string, debounce time.Duration, trigger func()) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		rosterPath: filepath.Clean(rosterPath),
		photosDir:  filepath.Clean(photosDir),
		debounce:   debounce,
		trigger:    trigger,
		logger:     tdlog.WithComponent("watch"),
		watcher:    fw,
	}

	// Watch the roster's parent directory, not the file itself: editors
	// and scp replace the file by rename, and a watch on the old inode
	// goes stale after the first change.
	for _, dir := range []string{filepath.Dir(w.rosterPath), w.photosDir} {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Start runs the event loop until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.Info().
		Str("event", "watch.started").
		Str("roster", w.rosterPath).
		Str("photos_dir", w.photosDir).
		Dur("debounce", w.debounce).
		Msg("file watcher started")
	go w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			w.logger.Info().Str("event", "watch.stopped").Msg("file watcher stopped")
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug().
				Str("event", "watch.change").
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("change detected")
			w.scheduleTrigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Str("event", "watch.error").Msg("watch error")
		}
	}
}

// relevant filters out events for unrelated files in the watched
// directories, such as editor temp files next to the roster.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	if name == w.rosterPath {
		return true
	}
	return filepath.Dir(name) == w.photosDir
}

func (w *Watcher) scheduleTrigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.trigger)
}

// Stop closes the watcher and cancels any pending trigger.
func (w *Watcher) Stop() {
	_ = w.watcher.Close()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}
