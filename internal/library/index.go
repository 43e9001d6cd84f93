// Package library maintains the index of local audio files: their tag
// metadata, a reverse lookup from canonical key to paths, and the
// modification times that let rescans skip unchanged files.
package library

import (
	"math"
	"sort"

	"github.com/justestif/go-radio-catalog/internal/identity"
)

// Track is the indexed metadata for a single audio file.
type Track struct {
	Path     string
	Artist   string
	Title    string
	Key      string   // canonical key
	Duration *float64 // seconds
	TagTempo *float64
	TagKey   string
}

// Index maps file paths to track metadata. It is built by a Scanner and is
// read-only for everyone else.
type Index struct {
	tracks map[string]Track
	byKey  map[string][]string
	mtimes map[string]int64
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		tracks: make(map[string]Track),
		byKey:  make(map[string][]string),
		mtimes: make(map[string]int64),
	}
}

// NewIndexFrom builds an index holding tracks, computing canonical keys
// where they are missing. It is meant for callers that obtain metadata
// without scanning, such as fixtures and imports.
func NewIndexFrom(tracks []Track) *Index {
	idx := NewIndex()
	for _, t := range tracks {
		if t.Key == "" {
			t.Key = identity.Key(t.Artist, t.Title)
		}
		idx.put(t, 0)
	}
	idx.rebuildByKey()
	return idx
}

// Len returns the number of searchable tracks.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.tracks)
}

// Scanned returns the number of files with a recorded modification time,
// including files that lacked enough metadata to be searchable.
func (idx *Index) Scanned() int {
	if idx == nil {
		return 0
	}
	return len(idx.mtimes)
}

// Track returns the metadata indexed for path.
func (idx *Index) Track(path string) (Track, bool) {
	if idx == nil {
		return Track{}, false
	}
	t, ok := idx.tracks[path]
	return t, ok
}

// Lookup returns the tracks stored under a canonical key, ordered by path.
func (idx *Index) Lookup(key string) []Track {
	if idx == nil {
		return nil
	}
	paths := idx.byKey[key]
	out := make([]Track, 0, len(paths))
	for _, p := range paths {
		out = append(out, idx.tracks[p])
	}
	return out
}

// Keys returns every canonical key in the index, sorted.
func (idx *Index) Keys() []string {
	if idx == nil {
		return nil
	}
	keys := make([]string, 0, len(idx.byKey))
	for k := range idx.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tracks returns all searchable tracks ordered by path.
func (idx *Index) Tracks() []Track {
	if idx == nil {
		return nil
	}
	out := make([]Track, 0, len(idx.tracks))
	for _, t := range idx.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// ModTime returns the recorded modification time for path in Unix nanoseconds.
func (idx *Index) ModTime(path string) (int64, bool) {
	if idx == nil {
		return 0, false
	}
	mt, ok := idx.mtimes[path]
	return mt, ok
}

// ClosestByDuration picks the track whose duration is nearest to want.
// Without a wanted duration, or when no track has one, the first track is
// returned.
func ClosestByDuration(tracks []Track, want *float64) (Track, bool) {
	if len(tracks) == 0 {
		return Track{}, false
	}
	if want == nil {
		return tracks[0], true
	}
	best, bestDelta := tracks[0], math.Inf(1)
	for _, t := range tracks {
		if t.Duration == nil {
			continue
		}
		if d := math.Abs(*t.Duration - *want); d < bestDelta {
			best, bestDelta = t, d
		}
	}
	return best, true
}

func (idx *Index) clone() *Index {
	out := NewIndex()
	if idx == nil {
		return out
	}
	for p, t := range idx.tracks {
		out.tracks[p] = t
	}
	for p, mt := range idx.mtimes {
		out.mtimes[p] = mt
	}
	return out
}

func (idx *Index) put(t Track, mtime int64) {
	idx.tracks[t.Path] = t
	idx.mtimes[t.Path] = mtime
}

// markScanned records a file that was read but is not searchable.
func (idx *Index) markScanned(path string, mtime int64) {
	delete(idx.tracks, path)
	idx.mtimes[path] = mtime
}

func (idx *Index) remove(path string) {
	delete(idx.tracks, path)
	delete(idx.mtimes, path)
}

func (idx *Index) rebuildByKey() {
	byKey := make(map[string][]string, len(idx.tracks))
	for p, t := range idx.tracks {
		byKey[t.Key] = append(byKey[t.Key], p)
	}
	for _, paths := range byKey {
		sort.Strings(paths)
	}
	idx.byKey = byKey
}
