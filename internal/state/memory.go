// SPDX-License-Identifier: MIT
package state

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/teamdir/internal/directory"
)

// MemoryStore keeps state in process. It is the default backend and the
// one tests use; restarts lose history, which is acceptable because
// every refresh rebuilds the snapshot from source data anyway.
type MemoryStore struct {
	mu     sync.Mutex
	snap   *directory.Snapshot
	runs   []Run
	runTTL time.Duration
}

func NewMemoryStore(runTTL time.Duration) *MemoryStore {
	return &MemoryStore{runTTL: runTTL}
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snap directory.Snapshot) error {
	s.mu.Lock()
	s.snap = &snap
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LoadSnapshot(_ context.Context) (directory.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return directory.Snapshot{}, false, nil
	}
	snap := *s.snap
	snap.Reindex()
	return snap, true, nil
}

func (s *MemoryStore) RecordRun(_ context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.runs = append(s.runs, run)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Time{}
	if s.runTTL > 0 {
		cutoff = time.Now().Add(-s.runTTL)
	}

	kept := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		if !cutoff.IsZero() && r.StartedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, r)
	}
	// Lazy expiry: drop aged-out runs for good.
	s.runs = kept

	out := make([]Run, len(kept))
	copy(out, kept)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ StateStore = (*MemoryStore)(nil)
