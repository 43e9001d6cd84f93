package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SyncRunRepository records catalog pushes.
type SyncRunRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a sync run, assigning an ID when none is set.
func (r *SyncRunRepository) Create(ctx context.Context, run *SyncRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	query := `
		INSERT INTO sync_runs (id, rows_synced, started_at, finished_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, run.ID, run.RowsSynced, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("inserting sync run: %w", err)
	}
	return nil
}

// Latest returns the most recent sync run, or ErrNotFound.
func (r *SyncRunRepository) Latest(ctx context.Context) (*SyncRun, error) {
	query := `
		SELECT id, rows_synced, started_at, finished_at
		FROM sync_runs
		ORDER BY finished_at DESC
		LIMIT 1
	`
	var run SyncRun
	err := r.pool.QueryRow(ctx, query).Scan(&run.ID, &run.RowsSynced, &run.StartedAt, &run.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest sync run: %w", err)
	}
	return &run, nil
}
