// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ManuGH/teamdir/internal/api"
	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/directory"
	"github.com/ManuGH/teamdir/internal/health"
	"github.com/ManuGH/teamdir/internal/jobs"
	"github.com/ManuGH/teamdir/internal/log"
	"github.com/ManuGH/teamdir/internal/photos"
	"github.com/ManuGH/teamdir/internal/roster"
	"github.com/ManuGH/teamdir/internal/state"
)

// newTestAPIServer builds an api.Server whose refresh is a counter stub.
func newTestAPIServer(t *testing.T, refreshed *atomic.Int32) (*api.Server, config.AppConfig) {
	t.Helper()

	dataDir := t.TempDir()
	photosDir := filepath.Join(dataDir, "photos")
	if err := os.MkdirAll(photosDir, 0o750); err != nil {
		t.Fatalf("create photos dir: %v", err)
	}

	cfg := config.AppConfig{
		Version:    "test",
		DataDir:    dataDir,
		RosterPath: filepath.Join(dataDir, "roster.csv"),
		PhotosDir:  photosDir,
		Thumbs:     config.ThumbsConfig{Dir: filepath.Join(dataDir, "thumbs"), Width: 80, Quality: 80},
	}

	renderer, err := photos.NewRenderer(photos.RenderConfig{
		PhotosDir: photosDir,
		ThumbDir:  cfg.Thumbs.Dir,
		Width:     cfg.Thumbs.Width,
		Quality:   cfg.Thumbs.Quality,
	})
	if err != nil {
		t.Fatalf("create renderer: %v", err)
	}

	hm := health.NewManager(cfg.Version)
	srv := api.New(cfg, api.Deps{
		Directory: directory.NewStore(),
		State:     state.NewMemoryStore(0),
		Renderer:  renderer,
		Source:    roster.FileSource{Path: cfg.RosterPath},
		Health:    hm,
	}, api.WithRefreshFunc(func(context.Context, config.AppConfig, jobs.Deps) (*jobs.Status, error) {
		refreshed.Add(1)
		return &jobs.Status{Profiles: 1}, nil
	}))

	return srv, cfg
}

func TestApp_RequiresManager(t *testing.T) {
	app := NewApp(log.WithComponent("test"), nil, nil, nil, config.AppConfig{})

	err := app.Run(context.Background())
	if !errors.Is(err, ErrMissingManager) {
		t.Fatalf("Run() error = %v, want ErrMissingManager", err)
	}
}

func TestApp_InitialRefresh(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var refreshed atomic.Int32
	srv, cfg := newTestAPIServer(t, &refreshed)
	cfg.InitialRefresh = true

	mgr, err := NewManager(testServerCfg("127.0.0.1:0"), Deps{
		Logger:     log.WithComponent("test"),
		Config:     cfg,
		APIHandler: srv.Handler(),
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	app := NewApp(log.WithComponent("test"), mgr, nil, srv, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Run(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for refreshed.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if refreshed.Load() != 1 {
		t.Errorf("initial refresh ran %d times, want 1", refreshed.Load())
	}

	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}

func TestApp_NoInitialRefresh(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var refreshed atomic.Int32
	srv, cfg := newTestAPIServer(t, &refreshed)
	cfg.InitialRefresh = false

	mgr, err := NewManager(testServerCfg("127.0.0.1:0"), Deps{
		Logger:     log.WithComponent("test"),
		Config:     cfg,
		APIHandler: srv.Handler(),
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	app := NewApp(log.WithComponent("test"), mgr, nil, srv, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Run(ctx)
	}()

	time.Sleep(150 * time.Millisecond)
	if got := refreshed.Load(); got != 0 {
		t.Errorf("refresh ran %d times with initial refresh disabled", got)
	}

	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}
