// Package reference parses a VirtualDJ database export into a lookup from
// canonical key to streaming reference id, tempo and musical key.
package reference

import (
	"bufio"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/justestif/go-radio-catalog/internal/identity"
	"github.com/justestif/go-radio-catalog/internal/track"
)

// NetSearchScheme prefixes reference ids in folder exports.
const NetSearchScheme = "netsearch://"

// maxLineSize bounds a single line of the export.
const maxLineSize = 16 * 1024 * 1024

var (
	linkIDRe     = regexp.MustCompile(`Link\s+NetSearch="(td\d+)"`)
	filePathIDRe = regexp.MustCompile(`FilePath="netsearch://(td\d+)"`)
	authorRe     = regexp.MustCompile(`Tags\s+[^>]*Author="([^"]+)"`)
	titleRe      = regexp.MustCompile(`Tags\s+[^>]*Title="([^"]+)"`)
	tagBPMRe     = regexp.MustCompile(`Tags\s+[^>]*(?:BPM|Bpm)="([^"]+)"`)
	tagKeyRe     = regexp.MustCompile(`Tags\s+[^>]*(?:Key|KEY)="([^"]+)"`)
	scanBPMRe    = regexp.MustCompile(`Scan\s+[^>]*(?:BPM|Bpm)="([^"]+)"`)
	scanKeyRe    = regexp.MustCompile(`Scan\s+[^>]*(?:Key|KEY)="([^"]+)"`)
)

// Entry is the reference metadata known for one canonical key.
type Entry struct {
	Key         string // canonical key
	ReferenceID string // empty when no streaming link is known
	Tempo       *float64
	MusicalKey  string
}

// URI returns the netsearch URI for the entry, or "" without an id.
func (e Entry) URI() string {
	if e.ReferenceID == "" {
		return ""
	}
	return NetSearchScheme + e.ReferenceID
}

// Index maps canonical keys to reference entries.
type Index struct {
	entries map[string]Entry
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]Entry)}
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Lookup returns the entry for a canonical key.
func (idx *Index) Lookup(key string) (Entry, bool) {
	if idx == nil {
		return Entry{}, false
	}
	e, ok := idx.entries[key]
	return e, ok
}

// ReferenceIDs returns canonical key to reference id for entries with an id.
func (idx *Index) ReferenceIDs() map[string]string {
	out := make(map[string]string)
	if idx == nil {
		return out
	}
	for k, e := range idx.entries {
		if e.ReferenceID != "" {
			out[k] = e.ReferenceID
		}
	}
	return out
}

// Load reads the export at path. A missing or unreadable file is not an
// error: it yields an empty index so resolution can continue local-only.
func Load(path string, log logrus.FieldLogger) *Index {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.WithField("path", path).Warn("reference database not found, resolving local-only")
		} else {
			log.WithField("path", path).WithError(err).Warn("reference database unreadable, resolving local-only")
		}
		return NewIndex()
	}
	defer f.Close()

	idx, err := Parse(f)
	if err != nil {
		log.WithField("path", path).WithError(err).Warn("reference database malformed, resolving local-only")
		return NewIndex()
	}
	log.WithFields(logrus.Fields{"path": path, "entries": idx.Len()}).Debug("loaded reference database")
	return idx
}

// Parse reads <Song> blocks line by line. Blocks without both an author and
// a title are skipped. When several blocks share a canonical key, later
// blocks fill fields the earlier ones left empty and override the rest.
func Parse(r io.Reader) (*Index, error) {
	idx := NewIndex()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var block []string
	inside := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "<Song ") {
			inside = true
			block = block[:0]
		}
		if !inside {
			continue
		}
		block = append(block, line)
		if strings.Contains(line, "</Song>") {
			if e, ok := parseBlock(strings.Join(block, "\n")); ok {
				idx.add(e)
			}
			inside = false
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	return idx, nil
}

func (idx *Index) add(e Entry) {
	prev, ok := idx.entries[e.Key]
	if ok {
		if e.ReferenceID == "" {
			e.ReferenceID = prev.ReferenceID
		}
		if e.Tempo == nil {
			e.Tempo = prev.Tempo
		}
		if e.MusicalKey == "" {
			e.MusicalKey = prev.MusicalKey
		}
	}
	idx.entries[e.Key] = e
}

func parseBlock(block string) (Entry, bool) {
	artist := submatch(authorRe, block)
	title := submatch(titleRe, block)
	if artist == "" || title == "" {
		return Entry{}, false
	}

	e := Entry{Key: identity.Key(artist, title)}

	if id := submatch(linkIDRe, block); id != "" {
		e.ReferenceID = id
	} else {
		e.ReferenceID = submatch(filePathIDRe, block)
	}

	bpm := submatch(tagBPMRe, block)
	if bpm == "" {
		bpm = submatch(scanBPMRe, block)
	}
	if v, ok := track.ExtractBPM(bpm); ok && v > 0 {
		e.Tempo = track.Float(secondsPerBeatToBPM(v))
	}

	key := submatch(tagKeyRe, block)
	if key == "" {
		key = submatch(scanKeyRe, block)
	}
	e.MusicalKey = track.ExtractKey(key)

	return e, true
}

// secondsPerBeatToBPM converts VirtualDJ's scan format, which stores the
// beat length in seconds, into beats per minute. Values that already look
// like a tempo pass through.
func secondsPerBeatToBPM(v float64) float64 {
	if v < 2 {
		return 60 / v
	}
	return v
}

func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}
