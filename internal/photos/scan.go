// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package photos indexes the photo directory, links photos to roster
// profiles by first-name matching, and renders the cached thumbnails
// served by the directory API.
package photos

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// File describes one indexed photo. Width/Height are zero when the file
// could not be decoded; Meta is zero when it carries no EXIF block.
type File struct {
	Name    string
	Size    int64
	ModTime time.Time
	Width   int
	Height  int
	Meta    Meta
}

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// Scan indexes the photo directory. The walk is non-recursive; the
// directory itself may be a symlink and is resolved first. Entries come
// back sorted by filename, which keeps matching deterministic.
func Scan(dir string) ([]File, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve photos dir: %w", err)
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, fmt.Errorf("read photos dir: %w", err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := imageExts[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}

		full := filepath.Join(resolved, entry.Name())
		// Stat follows symlinked files; anything that is not a regular
		// file after resolution is skipped.
		info, err := os.Stat(full)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		f := File{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		f.Width, f.Height = decodeDims(full)
		f.Meta = ReadMeta(full)
		files = append(files, f)
	}

	return files, nil
}

// decodeDims reads only the image header. Undecodable files report 0x0
// rather than failing the scan; the thumbnail path negative-caches them
// later.
func decodeDims(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
