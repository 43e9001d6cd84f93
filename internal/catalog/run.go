package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/justestif/go-radio-catalog/internal/identity"
	"github.com/justestif/go-radio-catalog/internal/track"
)

// ErrNoTrackColumn is returned when a per-run table has neither a combined
// Track column nor Artist and Title columns.
var ErrNoTrackColumn = errors.New("run table has no Track or Artist/Title columns")

// RunHeader is the column layout of a consolidated per-run table.
var RunHeader = []string{"Track", "Repeats", "Stations", "Station_Count"}

// ReadRunTable parses a per-run table. Either a combined "Artist - Title"
// Track column or separate Artist and Title columns are accepted. Rows
// without a Stations or Station column are attributed to defaultSource.
func ReadRunTable(r io.Reader, defaultSource string) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	col := func(names ...string) int {
		return track.PickColumn(headers, names, nil)
	}
	artistIdx, titleIdx, trackIdx := col("artist"), col("title"), col("track")
	if (artistIdx < 0 || titleIdx < 0) && trackIdx < 0 {
		return nil, ErrNoTrackColumn
	}
	stationsIdx := col("stations", "station", "source", "sources")
	repeatsIdx := col("repeats", "plays", "count")
	bpmIdx := col("bpm", "tempo")
	keyIdx := col("key", "camelot", "initial key")

	var obs []Observation
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		var o Observation
		if artistIdx >= 0 && titleIdx >= 0 {
			o.Artist, o.Title = cell(rec, artistIdx), cell(rec, titleIdx)
		} else {
			o.Artist, o.Title = identity.SplitTrack(cell(rec, trackIdx))
		}

		if stationsIdx >= 0 {
			o.Sources = ParseSources(cell(rec, stationsIdx))
		}
		if len(o.Sources) == 0 && defaultSource != "" {
			o.Sources = []string{defaultSource}
		}

		o.Repeats = 1
		if n, err := strconv.Atoi(cell(rec, repeatsIdx)); err == nil && n > 0 {
			o.Repeats = n
		}
		if v, ok := track.ExtractBPM(cell(rec, bpmIdx)); ok {
			o.BPM = track.FormatTempo(v)
		}
		o.Key = track.ExtractKey(cell(rec, keyIdx))

		obs = append(obs, o)
	}
	return obs, nil
}

// ReadRunFile opens path and parses it with ReadRunTable.
func ReadRunFile(path, defaultSource string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening run table: %w", err)
	}
	defer f.Close()
	return ReadRunTable(f, defaultSource)
}

// Consolidate aggregates observations from several station tables into one
// per-run table: plays are summed per canonical key and stations unioned.
// The result is ordered by repeats, then station count, both descending,
// then by display name.
func Consolidate(obs []Observation) []Observation {
	byKey := make(map[string]int)
	var out []Observation
	for _, o := range obs {
		if strings.TrimSpace(o.Artist) == "" && strings.TrimSpace(o.Title) == "" {
			continue
		}
		key := identity.Key(o.Artist, o.Title)
		i, ok := byKey[key]
		if !ok {
			byKey[key] = len(out)
			o.Sources = UnionSources(nil, o.Sources)
			out = append(out, o)
			continue
		}
		agg := &out[i]
		agg.Repeats += o.Repeats
		agg.Sources = UnionSources(agg.Sources, o.Sources)
		if agg.BPM == "" {
			agg.BPM = o.BPM
		}
		if agg.Key == "" {
			agg.Key = o.Key
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Repeats != b.Repeats {
			return a.Repeats > b.Repeats
		}
		if len(a.Sources) != len(b.Sources) {
			return len(a.Sources) > len(b.Sources)
		}
		return identity.JoinTrack(a.Artist, a.Title) < identity.JoinTrack(b.Artist, b.Title)
	})
	return out
}

// WriteRunTable writes observations in the consolidated per-run layout.
func WriteRunTable(w io.Writer, obs []Observation) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(RunHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, o := range obs {
		rec := []string{
			identity.JoinTrack(o.Artist, o.Title),
			strconv.Itoa(o.Repeats),
			JoinSources(o.Sources),
			strconv.Itoa(len(o.Sources)),
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
