// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/teamdir/internal/log"
)

// securePhotoServer creates a handler that serves original photos from
// the photo directory with comprehensive security checks against path
// traversal, symlink escapes, and directory listing.
func (s *Server) securePhotoServer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "api")

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			logger.Warn().Str("event", "photo_req.denied").Str("path", r.URL.Path).Str("reason", "method_not_allowed").Msg("method not allowed")
			recordPhotoRequestDenied("method_not_allowed")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		path := r.URL.Path
		// Enhanced traversal detection including multiple URL-decode passes,
		// Unicode normalization, mixed-case encodings, and NUL bytes.
		if isPathTraversal(path) {
			logger.Warn().Str("event", "photo_req.denied").Str("path", r.URL.Path).Str("reason", "path_escape").Msg("detected traversal sequence")
			recordPhotoRequestDenied("path_escape")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if strings.HasSuffix(path, "/") || path == "" {
			logger.Warn().Str("event", "photo_req.denied").Str("path", r.URL.Path).Str("reason", "directory_listing").Msg("directory listing forbidden")
			recordPhotoRequestDenied("directory_listing")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		absPhotosDir, err := filepath.Abs(s.cfg.PhotosDir)
		if err != nil {
			logger.Error().Err(err).Str("event", "photo_req.internal_error").Msg("could not get absolute photos dir")
			recordPhotoRequestDenied("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		fullPath := filepath.Join(absPhotosDir, path)

		// Evaluate symlinks and clean the path
		realPath, err := filepath.EvalSymlinks(fullPath)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Info().Str("event", "photo_req.not_found").Str("path", path).Msg("photo not found")
				recordPhotoRequestDenied("not_found")
				http.Error(w, "Not found", http.StatusNotFound)
				return
			}
			logger.Error().Err(err).Str("event", "photo_req.internal_error").Str("path", fullPath).Msg("could not evaluate symlinks")
			recordPhotoRequestDenied("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Also evaluate symlinks on the photo directory itself to get a consistent base path.
		realPhotosDir, err := filepath.EvalSymlinks(absPhotosDir)
		if err != nil {
			logger.Error().Err(err).Str("event", "photo_req.internal_error").Msg("could not evaluate symlinks on photos dir")
			recordPhotoRequestDenied("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Security check: ensure the real path is within the real photo directory.
		// filepath.Rel gives a robust containment check that survives symlink escapes.
		relPath, err := filepath.Rel(realPhotosDir, realPath)
		if err != nil || strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
			logger.Warn().
				Str("event", "photo_req.denied").
				Str("path", path).
				Str("resolved_path", realPath).
				Str("photos_dir", realPhotosDir).
				Str("reason", "path_escape").
				Msg("path escapes photo directory")
			recordPhotoRequestDenied("path_escape")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		// Security check: ensure we are not serving a directory
		info, err := os.Stat(realPath)
		if err != nil {
			logger.Error().Err(err).Str("event", "photo_req.internal_error").Str("path", realPath).Msg("could not stat real path")
			recordPhotoRequestDenied("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if info.IsDir() {
			logger.Warn().Str("event", "photo_req.denied").Str("path", path).Str("reason", "directory_listing").Msg("resolved path is a directory")
			recordPhotoRequestDenied("directory_listing")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		// #nosec G304 -- realPath is validated to reside inside the photo directory
		f, err := os.Open(realPath)
		if err != nil {
			logger.Error().Err(err).Str("event", "photo_req.internal_error").Str("path", realPath).Msg("could not open real path for serving")
			recordPhotoRequestDenied("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Warn().Err(err).Str("path", realPath).Msg("failed to close file")
			}
		}()

		// Re-fetch stat info from the opened file handle
		info, err = f.Stat()
		if err != nil {
			logger.Error().Err(err).Str("event", "photo_req.internal_error").Str("path", realPath).Msg("could not stat opened file")
			recordPhotoRequestDenied("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Weak ETag from modtime and size. W/ marks a weak validator:
		// good enough for photos that only change by being replaced.
		etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if match := r.Header.Get("If-None-Match"); match != "" {
			if match == etag {
				recordPhotoCacheHit()
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		// http.ServeContent handles Range requests and sets Content-Type
		// from the file extension, Content-Length, and Last-Modified.
		logger.Debug().Str("event", "photo_req.allowed").Str("path", path).Msg("serving photo")
		recordPhotoRequestAllowed()
		recordPhotoCacheMiss()
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

// isPathTraversal performs robust checks against path traversal attempts.
// It decodes the input multiple times to catch double-encoding, applies
// Unicode normalization, and searches for dangerous sequences including NULs.
func isPathTraversal(p string) bool {
	// Work on a copy
	decoded := p
	// Attempt multiple decode passes to catch double/triple encodings
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else {
			// As a fallback, try query unescape in case of stray '+' or query-like encoding
			if d2, err2 := url.QueryUnescape(decoded); err2 == nil {
				decoded = d2
			}
		}
		if decoded == prev {
			break
		}
	}

	lower := strings.ToLower(decoded)
	// Immediate dangerous byte patterns, independent of platform
	dangerSubstrings := []string{
		"..",        // parent traversal
		"..\\",      // windows-style backslash
		"%00",       // encoded NUL
		"\x00",      // literal NUL escape
		"%c0%ae",    // overlong UTF-8 for '.'
		"%e0%80%ae", // another overlong variant
	}
	for _, pat := range dangerSubstrings {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	// Literal NUL after decoding
	if strings.Contains(decoded, "\x00") || strings.IndexByte(decoded, 0x00) >= 0 {
		return true
	}

	// Normalize and check again for dot-dot
	normalized := strings.ToLower(norm.NFC.String(decoded))
	if strings.Contains(normalized, "..") || strings.Contains(normalized, "..\\") {
		return true
	}

	return false
}
