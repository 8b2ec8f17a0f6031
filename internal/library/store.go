// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// Store provides SQLite persistence for the photo index.
type Store struct {
	db *sql.DB
}

// NewStore initializes a new SQLite store and runs migrations.
// WAL mode + busy_timeout suit the read-heavy API workload.
func NewStore(dbPath string) (*Store, error) {
	// modernc wants pragmas in _pragma=name(value) form; they then apply
	// to every connection in the pool.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}

	if err := store.quickCheck(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("verify database: %w", err)
	}

	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// quickCheck surfaces file corruption at open time rather than on the
// first query. quick_check skips index ordering, which keeps it cheap
// even for large indexes.
func (s *Store) quickCheck() error {
	var result string
	if err := s.db.QueryRow(`PRAGMA quick_check;`).Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS photos (
		rel_path TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		mod_time TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		orientation INTEGER NOT NULL DEFAULT 0,
		taken_at TEXT,
		matched_profile TEXT NOT NULL DEFAULT '',
		scanned_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_photos_matched ON photos(matched_profile);
	CREATE INDEX IF NOT EXISTS idx_photos_scanned ON photos(scanned_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reindex replaces the index content with the given scan in one
// transaction: every item is upserted with the scan timestamp, then
// rows from earlier scans are pruned. Readers either see the old index
// or the new one, never a mix.
func (s *Store) Reindex(ctx context.Context, scannedAt time.Time, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Nano precision keeps stamps from consecutive refreshes distinct,
	// which the prune below depends on.
	stamp := scannedAt.UTC().Format(time.RFC3339Nano)

	upsert := `
	INSERT INTO photos (rel_path, file_name, size_bytes, mod_time, width, height, orientation, taken_at, matched_profile, scanned_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(rel_path) DO UPDATE SET
		file_name = excluded.file_name,
		size_bytes = excluded.size_bytes,
		mod_time = excluded.mod_time,
		width = excluded.width,
		height = excluded.height,
		orientation = excluded.orientation,
		taken_at = excluded.taken_at,
		matched_profile = excluded.matched_profile,
		scanned_at = excluded.scanned_at
	`

	for _, item := range items {
		var takenAt sql.NullString
		if item.TakenAt != nil && !item.TakenAt.IsZero() {
			takenAt = sql.NullString{String: item.TakenAt.UTC().Format(time.RFC3339Nano), Valid: true}
		}

		if _, err := tx.ExecContext(ctx, upsert,
			item.RelPath,
			item.Filename,
			item.SizeBytes,
			item.ModTime.UTC().Format(time.RFC3339Nano),
			item.Width,
			item.Height,
			item.Orientation,
			takenAt,
			item.MatchedProfile,
			stamp,
		); err != nil {
			return fmt.Errorf("upsert %s: %w", item.RelPath, err)
		}
	}

	// Prune files that vanished since the previous scan.
	if _, err := tx.ExecContext(ctx, `DELETE FROM photos WHERE scanned_at <> ?`, stamp); err != nil {
		return fmt.Errorf("prune stale items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// List retrieves indexed photos ordered by rel_path. matched filters to
// photos with (true) or without (false) a profile assignment; nil means
// no filter. Returns the page plus the total for the filter.
func (s *Store) List(ctx context.Context, matched *bool, limit, offset int) ([]Item, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	if matched != nil {
		if *matched {
			where = `WHERE matched_profile <> ''`
		} else {
			where = `WHERE matched_profile = ''`
		}
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM photos ` + where
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
	SELECT rel_path, file_name, size_bytes, mod_time, width, height, orientation, taken_at, matched_profile, scanned_at
	FROM photos ` + where + `
	ORDER BY rel_path
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}

	return items, total, rows.Err()
}

// Get retrieves a single indexed photo by rel_path. Missing rows return
// (nil, nil).
func (s *Store) Get(ctx context.Context, relPath string) (*Item, error) {
	query := `
	SELECT rel_path, file_name, size_bytes, mod_time, width, height, orientation, taken_at, matched_profile, scanned_at
	FROM photos
	WHERE rel_path = ?
	`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, relPath).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Stats reports index totals for /api/library/stats.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	query := `
	SELECT COUNT(*),
	       COALESCE(SUM(size_bytes), 0),
	       COALESCE(SUM(CASE WHEN matched_profile <> '' THEN 1 ELSE 0 END), 0)
	FROM photos
	`

	var st Stats
	if err := s.db.QueryRowContext(ctx, query).Scan(&st.Items, &st.TotalBytes, &st.Matched); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// scanItem maps one row through either sql.Row.Scan or sql.Rows.Scan.
func scanItem(scan func(dest ...any) error) (Item, error) {
	var (
		item         Item
		modTimeStr   string
		takenAtStr   sql.NullString
		scannedAtStr string
	)

	if err := scan(
		&item.RelPath,
		&item.Filename,
		&item.SizeBytes,
		&modTimeStr,
		&item.Width,
		&item.Height,
		&item.Orientation,
		&takenAtStr,
		&item.MatchedProfile,
		&scannedAtStr,
	); err != nil {
		return Item{}, err
	}

	item.ModTime, _ = time.Parse(time.RFC3339Nano, modTimeStr)
	item.ScannedAt, _ = time.Parse(time.RFC3339Nano, scannedAtStr)
	if takenAtStr.Valid {
		if t, err := time.Parse(time.RFC3339Nano, takenAtStr.String); err == nil {
			item.TakenAt = &t
		}
	}

	return item, nil
}
