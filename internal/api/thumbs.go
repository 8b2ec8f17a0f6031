// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/teamdir/internal/log"
	"github.com/ManuGH/teamdir/internal/photos"
	"github.com/ManuGH/teamdir/internal/telemetry"
)

// handleThumb serves the thumbnail for a profile, rendering it on the
// first request. Unknown ids and photo-less profiles are plain 404s so
// the route leaks nothing about the roster.
func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	span := trace.SpanFromContext(r.Context())

	id := chi.URLParam(r, "id")
	snap := s.dir.Current()

	p, ok := snap.ByID[id]
	if !ok {
		writeNotFound(w, "no profile with this id")
		return
	}
	if !p.HasPhoto {
		writeNotFound(w, "profile has no photo")
		return
	}

	// Known-bad sources 404 fast instead of re-attempting the decode.
	if s.prewarmer != nil && s.prewarmer.IsNegCached(p.Photo) {
		writeNotFound(w, "photo cannot be decoded")
		return
	}

	path, cached, err := s.renderer.Render(r.Context(), p.Photo)
	if err != nil {
		switch {
		case errors.Is(err, photos.ErrPhotoMissing):
			writeNotFound(w, "photo file missing")
		case errors.Is(err, photos.ErrUndecodable):
			if s.prewarmer != nil {
				s.prewarmer.MarkUndecodable(p.Photo)
			}
			logger.Warn().Str("event", "thumb.undecodable").Str("photo", p.Photo).Msg("source photo cannot be decoded")
			writeNotFound(w, "photo cannot be decoded")
		default:
			logger.Error().Err(err).Str("event", "thumb.render_error").Str("photo", p.Photo).Msg("thumbnail render failed")
			writeInternalError(w)
		}
		return
	}

	span.SetAttributes(telemetry.PhotoAttributes(p.Photo, s.cfg.Thumbs.Width, cached)...)

	// Thumbs are keyed by source modtime, so a replaced photo surfaces
	// under a new cache entry; a day of client caching is safe.
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
