// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package directory holds the in-memory team directory the API serves:
// an immutable snapshot built by the refresh pipeline and swapped in
// atomically, so request handlers never see a half-updated roster.
package directory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/teamdir/internal/roster"
)

// Snapshot is one consistent view of the directory. Everything in it is
// treated as immutable once built; a refresh builds a new one.
type Snapshot struct {
	Profiles    []roster.Profile          `json:"profiles"`
	Countries   []string                  `json:"countries"`
	ByID        map[string]roster.Profile `json:"-"`
	Version     string                    `json:"version"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// BuildSnapshot derives a snapshot from matched profiles. Countries are
// the sorted unique non-empty values for the filter dropdown. Every
// build gets a fresh version, which also keys the response cache.
func BuildSnapshot(profiles []roster.Profile, generatedAt time.Time) Snapshot {
	snap := Snapshot{
		Profiles:    profiles,
		Version:     uuid.NewString(),
		GeneratedAt: generatedAt,
	}
	snap.Reindex()

	seen := make(map[string]struct{})
	for _, p := range profiles {
		if p.Country == "" {
			continue
		}
		if _, ok := seen[p.Country]; ok {
			continue
		}
		seen[p.Country] = struct{}{}
		snap.Countries = append(snap.Countries, p.Country)
	}
	sort.Strings(snap.Countries)

	return snap
}

// Reindex rebuilds the ByID lookup. Needed after deserializing a
// persisted snapshot, where the map is not stored.
func (s *Snapshot) Reindex() {
	s.ByID = make(map[string]roster.Profile, len(s.Profiles))
	for _, p := range s.Profiles {
		s.ByID[p.ID] = p
	}
}

// Store hands out the current snapshot. Swaps are atomic; readers never
// block a refresh beyond the pointer exchange.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStore() *Store {
	return &Store{}
}

// Current returns the installed snapshot. Before the first swap it is
// the zero Snapshot with an empty version.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Swap installs a new snapshot and returns the previous one.
func (s *Store) Swap(snap Snapshot) Snapshot {
	s.mu.Lock()
	prev := s.snap
	s.snap = snap
	s.mu.Unlock()
	return prev
}

// Ready reports whether a snapshot has been installed. Readiness probes
// use it so the service only advertises ready once it can serve data.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Version != ""
}
