package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	path TEXT PRIMARY KEY,
	artist TEXT NOT NULL,
	title TEXT NOT NULL,
	canonical_key TEXT NOT NULL,
	duration REAL,
	tag_bpm REAL,
	tag_key TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_tracks_canonical_key ON tracks(canonical_key);

CREATE TABLE IF NOT EXISTS scanned (
	path TEXT PRIMARY KEY,
	mtime INTEGER NOT NULL
);
`

// Store persists an Index in a SQLite file so rescans stay incremental
// across runs.
type Store struct {
	path string
}

// NewStore creates a Store backed by the SQLite file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) open() (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

// Load reads the stored index. A missing database file yields an empty index.
func (s *Store) Load(ctx context.Context) (*Index, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return NewIndex(), nil
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	idx := NewIndex()

	rows, err := db.QueryContext(ctx, `SELECT path, mtime FROM scanned`)
	if err != nil {
		return nil, fmt.Errorf("querying scanned files: %w", err)
	}
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning mtime row: %w", err)
		}
		idx.mtimes[path] = mtime
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating mtime rows: %w", err)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, `
		SELECT path, artist, title, canonical_key, duration, tag_bpm, tag_key
		FROM tracks
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t Track
		var duration, bpm sql.NullFloat64
		if err := rows.Scan(&t.Path, &t.Artist, &t.Title, &t.Key, &duration, &bpm, &t.TagKey); err != nil {
			return nil, fmt.Errorf("scanning track row: %w", err)
		}
		if duration.Valid {
			t.Duration = &duration.Float64
		}
		if bpm.Valid {
			t.TagTempo = &bpm.Float64
		}
		idx.tracks[t.Path] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating track rows: %w", err)
	}

	idx.rebuildByKey()
	return idx, nil
}

// Save replaces the stored snapshot with idx in a single transaction.
func (s *Store) Save(ctx context.Context, idx *Index) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks`); err != nil {
		return fmt.Errorf("clearing tracks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scanned`); err != nil {
		return fmt.Errorf("clearing scanned files: %w", err)
	}

	trackStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (path, artist, title, canonical_key, duration, tag_bpm, tag_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing track insert: %w", err)
	}
	defer trackStmt.Close()

	for _, t := range idx.tracks {
		if _, err := trackStmt.ExecContext(ctx, t.Path, t.Artist, t.Title, t.Key,
			nullFloat(t.Duration), nullFloat(t.TagTempo), t.TagKey); err != nil {
			return fmt.Errorf("inserting track %s: %w", t.Path, err)
		}
	}

	mtimeStmt, err := tx.PrepareContext(ctx, `INSERT INTO scanned (path, mtime) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing mtime insert: %w", err)
	}
	defer mtimeStmt.Close()

	for path, mtime := range idx.mtimes {
		if _, err := mtimeStmt.ExecContext(ctx, path, mtime); err != nil {
			return fmt.Errorf("inserting mtime %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
