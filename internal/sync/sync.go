// Package sync pushes the durable catalog into the PostgreSQL mirror.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justestif/go-radio-catalog/internal/catalog"
	"github.com/justestif/go-radio-catalog/internal/db"
)

// Common errors.
var (
	// ErrSyncTooRecent is returned when sync is attempted within the cooldown period.
	ErrSyncTooRecent = errors.New("sync attempted too recently")
)

// DefaultSyncCooldown is the default time between allowed syncs.
const DefaultSyncCooldown = 1 * time.Hour

// DefaultBatchSize bounds the rows sent in one upsert.
const DefaultBatchSize = 1000

type catalogWriter interface {
	UpsertBatch(ctx context.Context, tracks []db.CatalogTrack) error
}

type runLog interface {
	Create(ctx context.Context, run *db.SyncRun) error
	Latest(ctx context.Context) (*db.SyncRun, error)
}

// Service handles syncing the catalog file to the database.
type Service struct {
	catalog      catalogWriter
	runs         runLog
	syncCooldown time.Duration
	batchSize    int
	log          logrus.FieldLogger
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSyncCooldown sets the minimum time between syncs.
func WithSyncCooldown(d time.Duration) Option {
	return func(s *Service) {
		s.syncCooldown = d
	}
}

// WithBatchSize sets the number of rows per upsert.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// New creates a new sync service.
func New(database *db.DB, opts ...Option) *Service {
	return newService(database.Catalog(), database.SyncRuns(), opts...)
}

func newService(cw catalogWriter, runs runLog, opts ...Option) *Service {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Service{
		catalog:      cw,
		runs:         runs,
		syncCooldown: DefaultSyncCooldown,
		batchSize:    DefaultBatchSize,
		log:          discard,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncResult contains the result of a sync operation.
type SyncResult struct {
	RowsCount int
	Batches   int
	SyncedAt  time.Time
}

// CanSync checks if enough time has passed since the last sync.
// Returns true if sync is allowed, false otherwise.
// Also returns the time when the next sync will be available.
func (s *Service) CanSync(ctx context.Context) (bool, time.Time, error) {
	last, err := s.GetLastSyncTime(ctx)
	if err != nil {
		return false, time.Time{}, err
	}
	if last == nil {
		// Never synced, allow
		return true, time.Time{}, nil
	}

	nextSyncTime := last.Add(s.syncCooldown)
	if s.now().Before(nextSyncTime) {
		return false, nextSyncTime, nil
	}

	return true, time.Time{}, nil
}

// SyncCatalog upserts rows into the mirror in batches and records the run.
// Returns ErrSyncTooRecent if called within the cooldown period.
// Set force=true to bypass the cooldown check.
func (s *Service) SyncCatalog(ctx context.Context, rows []catalog.Row, force bool) (*SyncResult, error) {
	if !force {
		canSync, nextTime, err := s.CanSync(ctx)
		if err != nil {
			return nil, err
		}
		if !canSync {
			return nil, fmt.Errorf("%w: next sync available at %s", ErrSyncTooRecent, nextTime.Format(time.RFC3339))
		}
	}

	started := s.now()
	result := &SyncResult{}

	for start := 0; start < len(rows); start += s.batchSize {
		end := start + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([]db.CatalogTrack, 0, end-start)
		for _, r := range rows[start:end] {
			batch = append(batch, toCatalogTrack(r))
		}
		if err := s.catalog.UpsertBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("upserting batch %d: %w", result.Batches+1, err)
		}
		result.Batches++
		result.RowsCount += len(batch)
	}

	result.SyncedAt = s.now()
	run := &db.SyncRun{
		RowsSynced: result.RowsCount,
		StartedAt:  started,
		FinishedAt: result.SyncedAt,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("recording sync run: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"run":     run.ID,
		"rows":    result.RowsCount,
		"batches": result.Batches,
	}).Info("catalog synced")
	return result, nil
}

// GetLastSyncTime returns the time of the last completed sync.
// Returns nil if the catalog has never been synced.
func (s *Service) GetLastSyncTime(ctx context.Context) (*time.Time, error) {
	run, err := s.runs.Latest(ctx)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting last sync run: %w", err)
	}
	return &run.FinishedAt, nil
}

func toCatalogTrack(r catalog.Row) db.CatalogTrack {
	return db.CatalogTrack{
		CanonicalKey: r.CanonicalKey(),
		Artist:       r.Artist,
		Title:        r.Title,
		Stations:     r.Sources,
		FirstSeen:    r.FirstSeen,
		LastSeen:     r.LastSeen,
		BPM:          r.BPM,
		Key:          r.Key,
	}
}
