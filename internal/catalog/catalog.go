// Package catalog maintains the cumulative catalog: one row per canonical
// key, grown run by run from per-run observation tables. Rows are never
// deleted, their source sets only grow, first-seen dates only move earlier,
// last-seen dates only move later, and tempo and key are filled once.
package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/justestif/go-radio-catalog/internal/identity"
)

// DateLayout is the on-disk date format.
const DateLayout = "2006-01-02"

// Header is the column layout of the durable catalog file.
var Header = []string{"Artist", "Title", "Stations", "FirstSeen", "LastSeen", "BPM", "Key"}

// Row is one durable catalog entry.
type Row struct {
	Artist    string
	Title     string
	Sources   []string // sorted, unique
	FirstSeen time.Time
	LastSeen  time.Time
	BPM       string
	Key       string
}

// CanonicalKey returns the identity key of the row.
func (r Row) CanonicalKey() string {
	return identity.Key(r.Artist, r.Title)
}

// SourcesString serializes the source set as stored on disk.
func (r Row) SourcesString() string {
	return JoinSources(r.Sources)
}

// Observation is one row of a per-run table.
type Observation struct {
	Artist  string
	Title   string
	Sources []string
	Repeats int
	BPM     string
	Key     string
}

// Catalog is the in-memory form of the durable catalog.
type Catalog struct {
	rows  []Row
	index map[string]int
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	return len(c.rows)
}

// Get returns the row stored under a canonical key.
func (c *Catalog) Get(key string) (Row, bool) {
	i, ok := c.index[key]
	if !ok {
		return Row{}, false
	}
	return c.rows[i], true
}

// Rows returns a copy of the rows in presentation order: last seen
// descending, then artist and title ascending.
func (c *Catalog) Rows() []Row {
	out := make([]Row, len(c.rows))
	copy(out, c.rows)
	sortRows(out)
	return out
}

// MergeStats reports what a merge changed.
type MergeStats struct {
	Added   int
	Updated int
	Skipped int
}

// Merge folds a per-run table observed on runDate into the catalog.
// Observations with neither artist nor title are skipped.
//
// Distinct tracks whose names normalize to the same canonical key are
// merged into one row; the catalog cannot tell them apart.
func (c *Catalog) Merge(obs []Observation, runDate time.Time) MergeStats {
	runDate = truncateDate(runDate)
	var stats MergeStats

	for _, o := range obs {
		artist, title := strings.TrimSpace(o.Artist), strings.TrimSpace(o.Title)
		if artist == "" && title == "" {
			stats.Skipped++
			continue
		}
		key := identity.Key(artist, title)

		i, ok := c.index[key]
		if !ok {
			c.index[key] = len(c.rows)
			c.rows = append(c.rows, Row{
				Artist:    artist,
				Title:     title,
				Sources:   UnionSources(nil, o.Sources),
				FirstSeen: runDate,
				LastSeen:  runDate,
				BPM:       strings.TrimSpace(o.BPM),
				Key:       strings.TrimSpace(o.Key),
			})
			stats.Added++
			continue
		}

		row := &c.rows[i]
		row.Sources = UnionSources(row.Sources, o.Sources)
		if runDate.Before(row.FirstSeen) {
			row.FirstSeen = runDate
		}
		if runDate.After(row.LastSeen) {
			row.LastSeen = runDate
		}
		if row.BPM == "" {
			row.BPM = strings.TrimSpace(o.BPM)
		}
		if row.Key == "" {
			row.Key = strings.TrimSpace(o.Key)
		}
		stats.Updated++
	}

	sortRows(c.rows)
	c.reindex()
	return stats
}

func (c *Catalog) add(r Row) bool {
	key := r.CanonicalKey()
	if _, ok := c.index[key]; ok {
		return false
	}
	c.index[key] = len(c.rows)
	c.rows = append(c.rows, r)
	return true
}

func (c *Catalog) reindex() {
	c.index = make(map[string]int, len(c.rows))
	for i, r := range c.rows {
		c.index[r.CanonicalKey()] = i
	}
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.LastSeen.Equal(b.LastSeen) {
			return a.LastSeen.After(b.LastSeen)
		}
		if a.Artist != b.Artist {
			return a.Artist < b.Artist
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.CanonicalKey() < b.CanonicalKey()
	})
}

// ParseSources splits a stored "A, B" source list into a sorted set.
func ParseSources(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return UnionSources(nil, out)
}

// JoinSources serializes a source set.
func JoinSources(sources []string) string {
	return strings.Join(sources, ", ")
}

// UnionSources returns the sorted union of two source lists without blanks
// or duplicates.
func UnionSources(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, s := range a {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = true
		}
	}
	for _, s := range b {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = true
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
