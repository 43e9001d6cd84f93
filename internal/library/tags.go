package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/go-flac/go-flac/v2"
	"github.com/hajimehoshi/go-mp3"

	"github.com/justestif/go-radio-catalog/internal/identity"
	"github.com/justestif/go-radio-catalog/internal/track"
)

// AudioExtensions lists the file extensions considered audio, lowercase.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".wav":  true,
	".aif":  true,
	".aiff": true,
	".aac":  true,
	".ogg":  true,
}

// Tags is the metadata a TagReader extracts from one file.
type Tags struct {
	Artist   string
	Title    string
	Duration *float64
	Tempo    *float64
	Key      string
}

// TagReader reads embedded metadata from an audio file.
type TagReader interface {
	ReadTags(path string) (Tags, error)
}

var (
	artistFrames = []string{"artist", "ARTIST", "Author", "TPE1", "TP1"}
	titleFrames  = []string{"title", "TITLE", "Title", "TIT2", "TT2"}
	bpmFrames    = []string{"TBPM", "TBP", "bpm", "BPM", "tempo", "tmpo"}
	keyFrames    = []string{"TKEY", "TKE", "initialkey", "InitialKey", "INITIALKEY", "key", "KEY"}
)

// FileTagReader reads tags with dhowden/tag and measures MP3 and FLAC
// durations by decoding stream headers.
type FileTagReader struct{}

// ReadTags implements TagReader.
func (FileTagReader) ReadTags(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	var out Tags
	m, err := tag.ReadFrom(f)
	if err != nil && !errors.Is(err, tag.ErrNoTagsFound) {
		return Tags{}, fmt.Errorf("reading tags: %w", err)
	}
	if m != nil {
		out = tagsFromMetadata(m.Artist(), m.Title(), m.Raw())
	}

	if d, ok := fileDuration(path, f); ok {
		out.Duration = track.Float(d)
	}
	return out, nil
}

// tagsFromMetadata prefers the parsed artist/title and falls back to raw
// frames, then looks for tempo and key under every common spelling and
// finally under any frame whose name mentions bpm or key.
func tagsFromMetadata(artist, title string, raw map[string]interface{}) Tags {
	out := Tags{
		Artist: strings.TrimSpace(artist),
		Title:  strings.TrimSpace(title),
	}
	if out.Artist == "" {
		out.Artist = firstRaw(raw, artistFrames)
	}
	if out.Title == "" {
		out.Title = firstRaw(raw, titleFrames)
	}

	if v, ok := track.ExtractBPM(firstRaw(raw, bpmFrames)); ok {
		out.Tempo = track.Float(v)
	}
	out.Key = track.ExtractKey(firstRaw(raw, keyFrames))

	if out.Tempo != nil && out.Key != "" {
		return out
	}
	for _, name := range sortedKeys(raw) {
		lower := strings.ToLower(name)
		value := rawString(raw[name])
		if out.Tempo == nil && strings.Contains(lower, "bpm") {
			if v, ok := track.ExtractBPM(value); ok {
				out.Tempo = track.Float(v)
			}
		}
		if out.Key == "" && strings.Contains(lower, "key") {
			out.Key = track.ExtractKey(value)
		}
	}
	return out
}

// fileDuration measures playback length. MP3 and FLAC are decoded; other
// formats fall back to nothing.
func fileDuration(path string, f *os.File) (float64, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		ff, err := flac.ParseFile(path)
		if err != nil {
			return 0, false
		}
		defer ff.Close()
		info, err := ff.GetStreamInfo()
		if err != nil || info.SampleRate == 0 {
			return 0, false
		}
		return float64(info.SampleCount) / float64(info.SampleRate), true
	case ".mp3":
		if _, err := f.Seek(0, 0); err != nil {
			return 0, false
		}
		d, err := mp3.NewDecoder(f)
		if err != nil || d.SampleRate() == 0 || d.Length() <= 0 {
			return 0, false
		}
		// Length is in bytes of 16-bit stereo PCM.
		const sampleSize = 4
		return float64(d.Length()/sampleSize) / float64(d.SampleRate()), true
	}
	return 0, false
}

// SplitFilename derives artist and title from an "Artist - Title.ext" name.
// Only a spaced separator splits, so hyphenated names stay whole.
func SplitFilename(path string) (artist, title string, ok bool) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	artist, title, found := strings.Cut(stem, identity.Separator)
	if !found {
		return "", "", false
	}
	artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
	return artist, title, artist != "" && title != ""
}

func firstRaw(raw map[string]interface{}, names []string) string {
	for _, n := range names {
		if v, ok := raw[n]; ok {
			if s := strings.TrimSpace(rawString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func rawString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []string:
		if len(x) > 0 {
			return x[0]
		}
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

func sortedKeys(raw map[string]interface{}) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
