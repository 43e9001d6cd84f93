package db

const schema = `
CREATE TABLE IF NOT EXISTS catalog_tracks (
	canonical_key TEXT PRIMARY KEY,
	artist        TEXT NOT NULL,
	title         TEXT NOT NULL,
	stations      TEXT[] NOT NULL DEFAULT '{}',
	first_seen    DATE NOT NULL,
	last_seen     DATE NOT NULL,
	bpm           TEXT NOT NULL DEFAULT '',
	musical_key   TEXT NOT NULL DEFAULT '',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS catalog_tracks_last_seen_idx
	ON catalog_tracks (last_seen DESC, artist, title);

CREATE TABLE IF NOT EXISTS sync_runs (
	id          UUID PRIMARY KEY,
	rows_synced INTEGER NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
`
