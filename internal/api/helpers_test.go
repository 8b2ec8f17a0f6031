// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/teamdir/internal/cache"
	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/directory"
	"github.com/ManuGH/teamdir/internal/health"
	"github.com/ManuGH/teamdir/internal/photos"
	"github.com/ManuGH/teamdir/internal/roster"
	"github.com/ManuGH/teamdir/internal/state"
)

// newTestServer builds a server around temp dirs, a memory cache and a
// memory state store. Tests install snapshots directly instead of
// running the pipeline.
func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()

	dataDir := t.TempDir()
	photosDir := filepath.Join(dataDir, "photos")
	thumbsDir := filepath.Join(dataDir, "thumbs")
	if err := os.MkdirAll(photosDir, 0o750); err != nil {
		t.Fatalf("create photos dir: %v", err)
	}

	cfg := config.AppConfig{
		Version:    "test",
		DataDir:    dataDir,
		RosterPath: filepath.Join(dataDir, "roster.csv"),
		PhotosDir:  photosDir,
		Thumbs:     config.ThumbsConfig{Dir: thumbsDir, Width: 80, Quality: 80},
		Cache:      config.CacheConfig{Backend: "memory", TTL: time.Minute},
	}

	renderer, err := photos.NewRenderer(photos.RenderConfig{
		PhotosDir: photosDir,
		ThumbDir:  thumbsDir,
		Width:     cfg.Thumbs.Width,
		Quality:   cfg.Thumbs.Quality,
	})
	if err != nil {
		t.Fatalf("create renderer: %v", err)
	}

	respCache, err := cache.New(cache.Config{Backend: cfg.Cache.Backend}, zerolog.Nop())
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}
	t.Cleanup(func() { _ = respCache.Close() })

	stateStore := state.NewMemoryStore(0)
	dir := directory.NewStore()

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewSnapshotChecker(dir.Ready))

	return New(cfg, Deps{
		Directory: dir,
		State:     stateStore,
		Cache:     respCache,
		Renderer:  renderer,
		Source:    roster.FileSource{Path: cfg.RosterPath},
		Health:    hm,
	}, opts...)
}

func testProfiles() []roster.Profile {
	return []roster.Profile{
		{ID: "maria-lopez", Name: "Maria Lopez", FirstName: "Maria", Birthday: "14 March", TownCounty: "Seville", Country: "Spain", Photo: "maria_beach.jpg", HasPhoto: true},
		{ID: "james-obrien", Name: "James O'Brien", FirstName: "James", Birthday: "2 June", TownCounty: "Cork", Country: "Ireland"},
		{ID: "aiko-tanaka", Name: "Aiko Tanaka", FirstName: "Aiko", Birthday: "9 September", TownCounty: "Osaka", Country: "Japan", Photo: "aiko_portrait.png", HasPhoto: true},
	}
}

// installSnapshot swaps a snapshot built from the profiles into the
// server's directory store.
func installSnapshot(t *testing.T, s *Server, profiles []roster.Profile) directory.Snapshot {
	t.Helper()
	snap := directory.BuildSnapshot(profiles, time.Now())
	s.dir.Swap(snap)
	return snap
}

// writeTestJPEG writes a decodable JPEG of the given size.
func writeTestJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write jpeg: %v", err)
	}
}
