// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package photos

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/renameio/v2"

	"github.com/ManuGH/teamdir/internal/metrics"
	"github.com/ManuGH/teamdir/internal/platform/fs"
)

var (
	// ErrPhotoMissing means the source photo is gone or unreadable.
	// Callers must not cache this outcome; the file may reappear.
	ErrPhotoMissing = errors.New("photo missing")

	// ErrUndecodable means the source exists but cannot be decoded as
	// an image. Safe to negative-cache.
	ErrUndecodable = errors.New("photo undecodable")
)

const (
	defaultThumbWidth    = 200
	defaultThumbQuality  = 85
	defaultMaxConcurrent = 4
)

// RenderConfig configures the thumbnail renderer.
type RenderConfig struct {
	PhotosDir     string
	ThumbDir      string
	Width         int // target width in px, aspect preserved
	Quality       int // JPEG quality 1-100
	MaxConcurrent int // bound on concurrent decode+resize work
}

// Renderer produces cached thumbnails for source photos. Thumbs are
// keyed by source basename and modtime, so replacing a photo renders a
// fresh thumb while the stale one is simply never referenced again.
type Renderer struct {
	photosDir string
	thumbDir  string
	width     int
	quality   int
	sem       chan struct{}
}

func NewRenderer(cfg RenderConfig) (*Renderer, error) {
	if cfg.Width <= 0 {
		cfg.Width = defaultThumbWidth
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = defaultThumbQuality
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if err := os.MkdirAll(cfg.ThumbDir, 0o750); err != nil {
		return nil, fmt.Errorf("create thumb dir: %w", err)
	}
	return &Renderer{
		photosDir: cfg.PhotosDir,
		thumbDir:  cfg.ThumbDir,
		width:     cfg.Width,
		quality:   cfg.Quality,
		sem:       make(chan struct{}, cfg.MaxConcurrent),
	}, nil
}

// Render returns the path of a ready thumbnail for the named source
// photo, producing it on a cache miss. cached reports whether the thumb
// already existed on disk. The decode+resize section is bounded by a
// semaphore so a burst of cold requests cannot pile up image work.
func (r *Renderer) Render(ctx context.Context, name string) (path string, cached bool, err error) {
	src, err := fs.ConfineRelPath(r.photosDir, name)
	if err != nil {
		metrics.IncThumbRender("notfound")
		return "", false, fmt.Errorf("%w: %s", ErrPhotoMissing, name)
	}

	info, err := os.Stat(src)
	if err != nil || !info.Mode().IsRegular() {
		metrics.IncThumbRender("notfound")
		return "", false, fmt.Errorf("%w: %s", ErrPhotoMissing, name)
	}

	thumb := filepath.Join(r.thumbDir, thumbName(name, info.ModTime()))
	if _, err := os.Stat(thumb); err == nil {
		metrics.IncThumbRender("hit_disk")
		return thumb, true, nil
	}

	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		return "", false, ctx.Err()
	}

	// A concurrent request may have rendered it while we waited.
	if _, err := os.Stat(thumb); err == nil {
		metrics.IncThumbRender("hit_disk")
		return thumb, true, nil
	}

	start := time.Now()
	if err := r.renderOne(src, thumb); err != nil {
		if errors.Is(err, ErrPhotoMissing) {
			metrics.IncThumbRender("notfound")
		} else {
			metrics.IncThumbRender("error")
		}
		return "", false, err
	}
	metrics.IncThumbRender("rendered")
	metrics.ObserveThumbRender(time.Since(start).Seconds())
	return thumb, false, nil
}

func (r *Renderer) renderOne(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		// Removed between stat and open: report missing, never cache.
		return fmt.Errorf("%w: %s", ErrPhotoMissing, filepath.Base(src))
	}
	defer func() { _ = f.Close() }()

	// AutoOrientation applies the EXIF rotation (3/6/8) before resizing,
	// so portrait shots come out upright.
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUndecodable, filepath.Base(src), err)
	}

	resized := imaging.Resize(img, r.width, 0, imaging.Lanczos)

	pending, err := renameio.NewPendingFile(dest)
	if err != nil {
		return fmt.Errorf("create pending thumb: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if err := imaging.Encode(pending, resized, imaging.JPEG, imaging.JPEGQuality(r.quality)); err != nil {
		return fmt.Errorf("encode thumb: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace thumb: %w", err)
	}
	return nil
}

// thumbName derives the cache filename from source basename + modtime.
// A replaced photo gets a new modtime and therefore a new cache entry.
func thumbName(name string, modTime time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", name, modTime.UnixNano())))
	return hex.EncodeToString(sum[:8]) + ".jpg"
}
