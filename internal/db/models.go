package db

import (
	"time"

	"github.com/google/uuid"
)

// CatalogTrack is one mirrored catalog row.
type CatalogTrack struct {
	CanonicalKey string
	Artist       string
	Title        string
	Stations     []string
	FirstSeen    time.Time
	LastSeen     time.Time
	BPM          string
	Key          string
	UpdatedAt    time.Time
}

// SyncRun records one push of the catalog into the mirror.
type SyncRun struct {
	ID         uuid.UUID
	RowsSynced int
	StartedAt  time.Time
	FinishedAt time.Time
}
