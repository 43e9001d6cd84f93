package catalog

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Merger applies per-run tables to the durable catalog of one station set.
type Merger struct {
	dir      string
	stations string
	snapshot bool
	log      logrus.FieldLogger
}

// MergerOption configures a Merger.
type MergerOption func(*Merger)

// WithoutSnapshots disables the dated snapshot copy.
func WithoutSnapshots() MergerOption {
	return func(m *Merger) {
		m.snapshot = false
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) MergerOption {
	return func(m *Merger) {
		m.log = l
	}
}

// NewMerger creates a Merger writing under dir. stations names the station
// set and ends up in the file names.
func NewMerger(dir, stations string, opts ...MergerOption) *Merger {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	m := &Merger{
		dir:      dir,
		stations: stations,
		snapshot: true,
		log:      discard,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the durable catalog location.
func (m *Merger) Path() string {
	return StablePath(m.dir, m.stations)
}

// MergeResult describes one applied run.
type MergeResult struct {
	Catalog      *Catalog
	Stats        MergeStats
	Path         string
	SnapshotPath string
}

// Apply loads the durable catalog, merges obs observed on runDate and
// writes the result to the durable path and a dated snapshot. A corrupt
// durable file aborts before anything is written.
func (m *Merger) Apply(obs []Observation, runDate time.Time) (*MergeResult, error) {
	path := m.Path()
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	stats := c.Merge(obs, runDate)
	if err := c.Save(path); err != nil {
		return nil, fmt.Errorf("saving catalog: %w", err)
	}

	res := &MergeResult{Catalog: c, Stats: stats, Path: path}
	if m.snapshot {
		res.SnapshotPath = SnapshotPath(m.dir, m.stations, runDate)
		if err := c.Save(res.SnapshotPath); err != nil {
			return nil, fmt.Errorf("saving snapshot: %w", err)
		}
	}

	m.log.WithFields(logrus.Fields{
		"date":    runDate.Format(DateLayout),
		"added":   stats.Added,
		"updated": stats.Updated,
		"skipped": stats.Skipped,
		"rows":    c.Len(),
	}).Info("merged run into catalog")
	return res, nil
}
