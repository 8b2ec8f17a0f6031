// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package state

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/ManuGH/teamdir/internal/directory"
)

const snapshotKey = "snap:current"

// runKeyLayout is fixed width so lexical key order equals chronological
// order inside badger.
const runKeyLayout = "2006-01-02T15:04:05.000000000Z"

// BadgerStore persists state on disk:
//   - snapshot: key "snap:current" (JSON)
//   - runs:     key "run:<fixed-width UTC stamp>:<id>" (JSON) with TTL
type BadgerStore struct {
	db     *badger.DB
	runTTL time.Duration
}

func OpenBadgerStore(path string, runTTL time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, runTTL: runTTL}, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }

func (s *BadgerStore) SaveSnapshot(_ context.Context, snap directory.Snapshot) error {
	buf, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(snapshotKey), buf)
	})
}

func (s *BadgerStore) LoadSnapshot(_ context.Context) (directory.Snapshot, bool, error) {
	var snap directory.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return directory.Snapshot{}, false, nil
		}
		return directory.Snapshot{}, false, err
	}
	snap.Reindex()
	return snap, true, nil
}

func (s *BadgerStore) RecordRun(_ context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	buf, err := json.Marshal(run)
	if err != nil {
		return err
	}
	key := []byte("run:" + run.StartedAt.UTC().Format(runKeyLayout) + ":" + run.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		if s.runTTL > 0 {
			entry := badger.NewEntry(key, buf).WithTTL(s.runTTL)
			return txn.SetEntry(entry)
		}
		return txn.Set(key, buf)
	})
}

func (s *BadgerStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	prefix := []byte("run:")
	var runs []Run

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			item := it.Item()
			var run Run
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			}); err != nil {
				continue
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

var _ StateStore = (*BadgerStore)(nil)
