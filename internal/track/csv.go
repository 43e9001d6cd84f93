package track

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Common errors.
var (
	// ErrEmptyPlaylist is returned when a playlist CSV has no header row.
	ErrEmptyPlaylist = errors.New("playlist csv is empty")

	// ErrUnrecognizedColumns is returned when neither named nor positional
	// artist/title columns can be found.
	ErrUnrecognizedColumns = errors.New("playlist csv has no artist and title columns")
)

// column describes how a logical field is found among CSV headers: exact
// names are tried first, in order, then substring matches in header order.
type column struct {
	exact    []string
	contains []string
}

var (
	artistColumn   = column{exact: []string{"artist"}, contains: []string{"artist", "author"}}
	titleColumn    = column{exact: []string{"title"}, contains: []string{"title"}}
	durationColumn = column{exact: []string{"duration", "length", "time"}, contains: []string{"dur", "length", "time"}}
	bpmColumn      = column{
		exact:    []string{"bpm", "tempo", "tempo (bpm)", "avg bpm", "bpm avg"},
		contains: []string{"bpm", "tempo"},
	}
	keyColumn = column{
		exact:    []string{"key", "musical key", "camelot", "initial key", "initialkey", "key (camelot)"},
		contains: []string{"key", "camelot"},
	}
)

var (
	headerSpaceRe = regexp.MustCompile(`\s+`)
	annotatedRe   = regexp.MustCompile(`(?i)(?:^|[\s\-])annotated(?:$|[\s\-])`)
)

// NormalizeHeader lowercases a header and treats underscores, dashes and
// runs of whitespace as a single space.
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return headerSpaceRe.ReplaceAllString(s, " ")
}

// PickColumn returns the index of the first header matching one of the exact
// names, falling back to the first header containing one of the substrings.
// It returns -1 when nothing matches.
func PickColumn(headers, exact, contains []string) int {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}
	for _, name := range exact {
		want := NormalizeHeader(name)
		for i, h := range normalized {
			if h == want {
				return i
			}
		}
	}
	for i, h := range normalized {
		for _, sub := range contains {
			if strings.Contains(h, NormalizeHeader(sub)) {
				return i
			}
		}
	}
	return -1
}

func (c column) pick(headers []string) int {
	return PickColumn(headers, c.exact, c.contains)
}

// ReadPlaylist parses a playlist CSV. Header names are matched loosely; when
// no artist or title header is present the first two columns are used.
// Rows with a blank artist or title are dropped.
func ReadPlaylist(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyPlaylist
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	artistIdx := artistColumn.pick(headers)
	titleIdx := titleColumn.pick(headers)
	durationIdx, bpmIdx, keyIdx := -1, -1, -1
	if artistIdx < 0 || titleIdx < 0 {
		if len(headers) < 2 {
			return nil, ErrUnrecognizedColumns
		}
		artistIdx, titleIdx = 0, 1
	} else {
		durationIdx = durationColumn.pick(headers)
		bpmIdx = bpmColumn.pick(headers)
		keyIdx = keyColumn.pick(headers)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		row := Row{
			Artist: field(record, artistIdx),
			Title:  field(record, titleIdx),
		}
		if v, ok := ParseDuration(field(record, durationIdx)); ok {
			row.Duration = Float(v)
		}
		if v, ok := ExtractBPM(field(record, bpmIdx)); ok {
			row.Tempo = Float(v)
		}
		row.Key = ExtractKey(field(record, keyIdx))

		if !row.Valid() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadPlaylistFile opens path and parses it with ReadPlaylist.
func ReadPlaylistFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening playlist: %w", err)
	}
	defer f.Close()

	rows, err := ReadPlaylist(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// InferPlaylistName derives a list name from a CSV file name, dropping any
// "annotated" marker.
func InferPlaylistName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.ReplaceAll(name, "_", " ")
	name = annotatedRe.ReplaceAllString(name, " ")
	name = headerSpaceRe.ReplaceAllString(name, " ")
	return strings.Trim(name, " -")
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
