package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/justestif/go-radio-catalog/internal/identity"
)

// ScanStats summarizes one scan.
type ScanStats struct {
	Seen       int // audio files found under the roots
	Reused     int // unchanged since the previous scan
	Parsed     int // read and indexed
	Unkeyed    int // read but lacking artist or title
	Failed     int // tag read errors, indexed from the file name where possible
	Removed    int // previously indexed paths that no longer exist
	Searchable int
}

// DefaultConcurrency is the number of files whose tags are read in parallel.
const DefaultConcurrency = 8

// Scanner walks library roots and refreshes an Index.
type Scanner struct {
	reader      TagReader
	concurrency int
	log         logrus.FieldLogger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithTagReader replaces the default file tag reader.
func WithTagReader(r TagReader) Option {
	return func(s *Scanner) {
		s.reader = r
	}
}

// WithConcurrency sets the number of concurrent tag reads.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger used for skipped files.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scanner) {
		s.log = l
	}
}

// NewScanner creates a Scanner reading tags from disk.
func NewScanner(opts ...Option) *Scanner {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Scanner{
		reader:      FileTagReader{},
		concurrency: DefaultConcurrency,
		log:         discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pendingFile is an audio file whose tags must be (re)read.
type pendingFile struct {
	path  string
	mtime int64
	tags  Tags
	err   error
}

// Scan walks roots and returns a refreshed copy of existing, which may be
// nil. Files whose modification time matches the previous scan are reused
// without reading their tags. Paths that vanished from disk are dropped.
// A file that cannot be read never aborts the scan.
func (s *Scanner) Scan(ctx context.Context, roots []string, existing *Index) (*Index, ScanStats, error) {
	idx := existing.clone()
	var stats ScanStats
	seen := make(map[string]bool)
	var pending []pendingFile

	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			s.log.WithField("root", root).WithError(err).Warn("skipping library root")
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				s.log.WithField("path", path).WithError(err).Debug("skipping unreadable entry")
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !AudioExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				s.log.WithField("path", path).WithError(err).Debug("skipping file without stat")
				return nil
			}
			if seen[path] {
				return nil
			}

			stats.Seen++
			seen[path] = true
			mtime := info.ModTime().UnixNano()
			if prev, ok := idx.mtimes[path]; ok && prev == mtime {
				stats.Reused++
				return nil
			}
			pending = append(pending, pendingFile{path: path, mtime: mtime})
			return nil
		})
		if err != nil {
			return nil, stats, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	if err := s.readAll(ctx, pending); err != nil {
		return nil, stats, fmt.Errorf("reading tags: %w", err)
	}
	for _, p := range pending {
		s.indexFile(idx, p, &stats)
	}

	for path := range idx.mtimes {
		if seen[path] {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			idx.remove(path)
			stats.Removed++
		}
	}

	idx.rebuildByKey()
	stats.Searchable = idx.Len()
	return idx, stats, nil
}

// readAll reads tags for every pending file with a bounded worker pool.
// Results are stored in place, so order follows the walk.
func (s *Scanner) readAll(ctx context.Context, pending []pendingFile) error {
	if len(pending) == 0 {
		return nil
	}

	workCh := make(chan int, len(pending))
	for i := range pending {
		workCh <- i
	}
	close(workCh)

	workers := s.concurrency
	if workers > len(pending) {
		workers = len(pending)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range workCh {
				if ctx.Err() != nil {
					continue
				}
				pending[j].tags, pending[j].err = s.reader.ReadTags(pending[j].path)
			}
		}()
	}
	wg.Wait()

	return ctx.Err()
}

func (s *Scanner) indexFile(idx *Index, p pendingFile, stats *ScanStats) {
	tags := p.tags
	if p.err != nil {
		stats.Failed++
		s.log.WithField("path", p.path).WithError(p.err).Debug("reading tags failed, using file name")
		tags = Tags{}
	}

	if tags.Artist == "" || tags.Title == "" {
		if artist, title, ok := SplitFilename(p.path); ok {
			if tags.Artist == "" {
				tags.Artist = artist
			}
			if tags.Title == "" {
				tags.Title = title
			}
		}
	}
	if tags.Artist == "" || tags.Title == "" {
		stats.Unkeyed++
		idx.markScanned(p.path, p.mtime)
		return
	}

	stats.Parsed++
	idx.put(Track{
		Path:     p.path,
		Artist:   tags.Artist,
		Title:    tags.Title,
		Key:      identity.Key(tags.Artist, tags.Title),
		Duration: tags.Duration,
		TagTempo: tags.Tempo,
		TagKey:   tags.Key,
	}, p.mtime)
}
