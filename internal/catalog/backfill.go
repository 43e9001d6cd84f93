package catalog

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

var runDateRe = regexp.MustCompile(`(20\d{2}-[01]\d-[0-3]\d)`)

// DatedFile is a per-run table whose run date is embedded in its name.
type DatedFile struct {
	Path string
	Date time.Time
}

// DatedFiles returns the files among paths that carry a run date in their
// name, within [start, end] when those are non-zero, oldest first.
func DatedFiles(paths []string, start, end time.Time) []DatedFile {
	var out []DatedFile
	for _, p := range paths {
		m := runDateRe.FindString(filepath.Base(p))
		if m == "" {
			continue
		}
		d, err := time.Parse(DateLayout, m)
		if err != nil {
			continue
		}
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		out = append(out, DatedFile{Path: p, Date: d})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// BackfillResult summarizes a replay.
type BackfillResult struct {
	Applied []DatedFile
	Skipped []DatedFile
	Rows    int
}

// Backfill replays dated per-run tables into the catalog in date order.
// An unreadable per-run table is skipped; a corrupt durable catalog stops
// the replay with ErrCorruptCatalog.
func (m *Merger) Backfill(files []DatedFile, defaultSource string) (*BackfillResult, error) {
	res := &BackfillResult{}
	for _, f := range files {
		obs, err := ReadRunFile(f.Path, defaultSource)
		if err != nil {
			m.log.WithField("file", filepath.Base(f.Path)).WithError(err).Warn("skipping unreadable run table")
			res.Skipped = append(res.Skipped, f)
			continue
		}
		if len(obs) == 0 {
			m.log.WithField("file", filepath.Base(f.Path)).Debug("skipping empty run table")
			res.Skipped = append(res.Skipped, f)
			continue
		}

		merged, err := m.Apply(obs, f.Date)
		if err != nil {
			return res, fmt.Errorf("applying %s: %w", filepath.Base(f.Path), err)
		}
		res.Applied = append(res.Applied, f)
		res.Rows = merged.Catalog.Len()
	}
	return res, nil
}
