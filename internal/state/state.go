// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package state persists the directory snapshot and refresh run history
// across restarts, so the API can serve the last known roster before
// the first refresh of a new process completes.
package state

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/teamdir/internal/directory"
)

// Run records one refresh pipeline execution.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    string    `json:"outcome"` // ok | failed
	Profiles   int       `json:"profiles"`
	Countries  int       `json:"countries"`
	Photos     int       `json:"photos"`
	Matched    int       `json:"matched"`
	Error      string    `json:"error,omitempty"`
}

// StateStore persists snapshots and run history.
type StateStore interface {
	SaveSnapshot(ctx context.Context, snap directory.Snapshot) error
	// LoadSnapshot returns the stored snapshot with its lookup index
	// rebuilt. ok is false when nothing has been stored yet.
	LoadSnapshot(ctx context.Context) (snap directory.Snapshot, ok bool, err error)
	RecordRun(ctx context.Context, run Run) error
	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// Open creates a StateStore for the configured backend. An empty
// backend falls back to memory.
func Open(backend, path string, runTTL time.Duration) (StateStore, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(runTTL), nil
	case "badger":
		if path == "" {
			return nil, fmt.Errorf("badger backend requires a path")
		}
		return OpenBadgerStore(path, runTTL)
	default:
		return nil, fmt.Errorf("unknown state backend: %s", backend)
	}
}
