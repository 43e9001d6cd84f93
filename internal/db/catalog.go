package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository handles catalog mirror operations.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// UpsertBatch inserts or merges multiple catalog rows. Merging follows the
// durable catalog's rules: stations are unioned, first_seen only moves
// earlier, last_seen only moves later, and bpm/key are filled but never
// overwritten.
func (r *CatalogRepository) UpsertBatch(ctx context.Context, tracks []CatalogTrack) error {
	if len(tracks) == 0 {
		return nil
	}

	// Stations travel as joined strings; unnest would flatten a text[][].
	query := `
		INSERT INTO catalog_tracks (canonical_key, artist, title, stations, first_seen, last_seen, bpm, musical_key, updated_at)
		SELECT k, a, t,
			CASE WHEN s = '' THEN '{}'::text[] ELSE string_to_array(s, $9) END,
			f, l, b, m, NOW()
		FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::date[], $6::date[], $7::text[], $8::text[])
			AS u(k, a, t, s, f, l, b, m)
		ON CONFLICT (canonical_key) DO UPDATE SET
			stations = ARRAY(
				SELECT DISTINCT st
				FROM unnest(catalog_tracks.stations || EXCLUDED.stations) AS st
				ORDER BY st
			),
			first_seen = LEAST(catalog_tracks.first_seen, EXCLUDED.first_seen),
			last_seen = GREATEST(catalog_tracks.last_seen, EXCLUDED.last_seen),
			bpm = COALESCE(NULLIF(catalog_tracks.bpm, ''), EXCLUDED.bpm),
			musical_key = COALESCE(NULLIF(catalog_tracks.musical_key, ''), EXCLUDED.musical_key),
			updated_at = NOW()
	`

	keys := make([]string, len(tracks))
	artists := make([]string, len(tracks))
	titles := make([]string, len(tracks))
	stations := make([]string, len(tracks))
	firstSeen := make([]time.Time, len(tracks))
	lastSeen := make([]time.Time, len(tracks))
	bpms := make([]string, len(tracks))
	musicalKeys := make([]string, len(tracks))

	for i, t := range tracks {
		keys[i] = t.CanonicalKey
		artists[i] = t.Artist
		titles[i] = t.Title
		stations[i] = strings.Join(t.Stations, stationSep)
		firstSeen[i] = t.FirstSeen
		lastSeen[i] = t.LastSeen
		bpms[i] = t.BPM
		musicalKeys[i] = t.Key
	}

	_, err := r.pool.Exec(ctx, query, keys, artists, titles, stations, firstSeen, lastSeen, bpms, musicalKeys, stationSep)
	if err != nil {
		return fmt.Errorf("batch upserting catalog rows: %w", err)
	}
	return nil
}

// stationSep cannot occur inside a station tag.
const stationSep = "\x1f"

const catalogColumns = `canonical_key, artist, title, stations, first_seen, last_seen, bpm, musical_key, updated_at`

// Get retrieves a catalog row by canonical key.
func (r *CatalogRepository) Get(ctx context.Context, key string) (*CatalogTrack, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_tracks WHERE canonical_key = $1`
	t, err := scanCatalogTrack(r.pool.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying catalog row: %w", err)
	}
	return t, nil
}

// List returns catalog rows in catalog order: most recently seen first,
// then by artist and title. A non-positive limit returns every row.
func (r *CatalogRepository) List(ctx context.Context, limit int) ([]CatalogTrack, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM catalog_tracks
		ORDER BY last_seen DESC, artist, title, canonical_key
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var tracks []CatalogTrack
	for rows.Next() {
		t, err := scanCatalogTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		tracks = append(tracks, *t)
	}
	return tracks, rows.Err()
}

// Count returns the number of mirrored rows.
func (r *CatalogRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting catalog rows: %w", err)
	}
	return n, nil
}

func scanCatalogTrack(row pgx.Row) (*CatalogTrack, error) {
	var t CatalogTrack
	err := row.Scan(
		&t.CanonicalKey,
		&t.Artist,
		&t.Title,
		&t.Stations,
		&t.FirstSeen,
		&t.LastSeen,
		&t.BPM,
		&t.Key,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
