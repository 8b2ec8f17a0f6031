// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/teamdir/internal/directory"
	"github.com/ManuGH/teamdir/internal/roster"
)

func stateBackends(t *testing.T) map[string]StateStore {
	t.Helper()

	badgerStore, err := OpenBadgerStore(t.TempDir(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = badgerStore.Close()
	})

	return map[string]StateStore{
		"memory": NewMemoryStore(time.Hour),
		"badger": badgerStore,
	}
}

func testSnapshot() directory.Snapshot {
	return directory.BuildSnapshot([]roster.Profile{
		{ID: "maria-santos-1", Name: "Maria Santos", FirstName: "Maria", Country: "Portugal"},
		{ID: "ekene-amobi-1", Name: "Ekene Amobi", FirstName: "Ekene", Country: "Nigeria"},
	}, time.Now().UTC())
}

func TestStateStoreSnapshotRoundTrip(t *testing.T) {
	for name, store := range stateBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := store.LoadSnapshot(ctx)
			require.NoError(t, err)
			require.False(t, ok, "empty store has no snapshot")

			snap := testSnapshot()
			require.NoError(t, store.SaveSnapshot(ctx, snap))

			loaded, ok, err := store.LoadSnapshot(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, snap.Version, loaded.Version)
			require.Equal(t, snap.Countries, loaded.Countries)
			require.Len(t, loaded.ByID, 2, "lookup index is rebuilt on load")
			require.Equal(t, "Maria Santos", loaded.ByID["maria-santos-1"].Name)
		})
	}
}

func TestStateStoreRunHistory(t *testing.T) {
	for name, store := range stateBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().UTC().Add(-time.Minute)

			for i := 0; i < 3; i++ {
				require.NoError(t, store.RecordRun(ctx, Run{
					StartedAt:  base.Add(time.Duration(i) * time.Second),
					FinishedAt: base.Add(time.Duration(i)*time.Second + 500*time.Millisecond),
					Outcome:    "ok",
					Profiles:   10 + i,
				}))
			}

			runs, err := store.ListRuns(ctx, 2)
			require.NoError(t, err)
			require.Len(t, runs, 2)
			require.Equal(t, 12, runs[0].Profiles, "newest first")
			require.Equal(t, 11, runs[1].Profiles)
			require.NotEmpty(t, runs[0].ID, "missing run IDs are assigned")

			all, err := store.ListRuns(ctx, 0)
			require.NoError(t, err)
			require.Len(t, all, 3)
		})
	}
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenBadgerStore(dir, time.Hour)
	require.NoError(t, err)

	snap := testSnapshot()
	require.NoError(t, store.SaveSnapshot(ctx, snap))
	require.NoError(t, store.RecordRun(ctx, Run{StartedAt: time.Now().UTC(), Outcome: "ok"}))
	require.NoError(t, store.Close())

	reopened, err := OpenBadgerStore(dir, time.Hour)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	loaded, ok, err := reopened.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap.Version, loaded.Version)

	runs, err := reopened.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestMemoryStoreRunTTL(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.RecordRun(ctx, Run{StartedAt: time.Now(), Outcome: "ok"}))
	time.Sleep(30 * time.Millisecond)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, runs, "aged-out runs are dropped")
}

func TestOpenBackendSelection(t *testing.T) {
	store, err := Open("", "", time.Hour)
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)

	store, err = Open("memory", "", time.Hour)
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)

	_, err = Open("badger", "", time.Hour)
	require.Error(t, err, "badger needs a path")

	badgerStore, err := Open("badger", t.TempDir(), time.Hour)
	require.NoError(t, err)
	require.IsType(t, &BadgerStore{}, badgerStore)
	require.NoError(t, badgerStore.Close())

	_, err = Open("postgres", "", time.Hour)
	require.Error(t, err)
}
