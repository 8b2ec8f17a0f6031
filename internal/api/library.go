// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ManuGH/teamdir/internal/library"
	"github.com/ManuGH/teamdir/internal/log"
)

const (
	libraryDefaultLimit = 100
	libraryMaxLimit     = 500
)

// LibraryItemsResponse is one page of the photo index.
type LibraryItemsResponse struct {
	Items  []library.Item `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (s *Server) handleLibraryItems(w http.ResponseWriter, r *http.Request) {
	if s.library == nil {
		writeNotFound(w, "photo library index is disabled")
		return
	}
	logger := log.WithComponentFromContext(r.Context(), "api")
	q := r.URL.Query()

	var matched *bool
	if v := q.Get("matched"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, fmt.Errorf("invalid matched parameter %q", v))
			return
		}
		matched = &b
	}

	limit := parseIntOr(q.Get("limit"), libraryDefaultLimit)
	if limit <= 0 {
		limit = libraryDefaultLimit
	}
	if limit > libraryMaxLimit {
		limit = libraryMaxLimit
	}
	offset := parseIntOr(q.Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.library.List(r.Context(), matched, limit, offset)
	if err != nil {
		logger.Error().Err(err).Str("event", "library.list_error").Msg("failed to list library items")
		writeInternalError(w)
		return
	}
	if items == nil {
		items = []library.Item{}
	}

	writeJSON(w, http.StatusOK, LibraryItemsResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) handleLibraryStats(w http.ResponseWriter, r *http.Request) {
	if s.library == nil {
		writeNotFound(w, "photo library index is disabled")
		return
	}
	logger := log.WithComponentFromContext(r.Context(), "api")

	stats, err := s.library.Stats(r.Context())
	if err != nil {
		logger.Error().Err(err).Str("event", "library.stats_error").Msg("failed to read library stats")
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseIntOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
