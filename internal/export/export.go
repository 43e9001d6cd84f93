// Package export writes resolved playlists as VirtualDJ folders and M3U8
// playlists.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/justestif/go-radio-catalog/internal/reference"
	"github.com/justestif/go-radio-catalog/internal/resolver"
)

// ErrUnknownMode is returned for a write mode other than replace, add or
// save_as_new.
var ErrUnknownMode = errors.New("unknown export mode")

// ErrUnknownFormat is returned for a format other than vdjfolder, m3u8 or both.
var ErrUnknownFormat = errors.New("unknown export format")

// Mode selects how an export treats an existing file.
type Mode string

const (
	ModeReplace   Mode = "replace"
	ModeAdd       Mode = "add"
	ModeSaveAsNew Mode = "save_as_new"
)

// ParseMode parses a mode name; empty means replace.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeReplace, nil
	case ModeReplace, ModeAdd, ModeSaveAsNew:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Format is an output file format.
type Format string

const (
	FormatVDJFolder Format = "vdjfolder"
	FormatM3U8      Format = "m3u8"
)

// ParseFormats parses "vdjfolder", "m3u8" or "both".
func ParseFormats(s string) ([]Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return []Format{FormatVDJFolder, FormatM3U8}, nil
	case string(FormatVDJFolder):
		return []Format{FormatVDJFolder}, nil
	case string(FormatM3U8):
		return []Format{FormatM3U8}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Options control a single export.
type Options struct {
	Mode Mode
	// NewName is the list name used by ModeSaveAsNew.
	NewName string
	// GenericSearch substitutes a search:// URI for entries with neither a
	// local path nor a reference id. Folder exports only.
	GenericSearch bool
}

// Exporter writes playlists into one output directory.
type Exporter struct {
	dir string
	log logrus.FieldLogger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Exporter) {
		e.log = log
	}
}

// New creates an exporter writing into dir.
func New(dir string, opts ...Option) *Exporter {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	e := &Exporter{dir: dir, log: discard}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes matches in the given format and returns the written path.
func (e *Exporter) Export(format Format, listName string, matches []resolver.Match, opts Options) (string, error) {
	switch format {
	case FormatVDJFolder:
		return e.VDJFolder(listName, matches, opts)
	case FormatM3U8:
		return e.M3U8(listName, matches, opts)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// BuildSongPaths returns the folder entries for matches in order: the local
// path when resolved, else the reference URI, else a generic search URI
// when generic is set. Other matches are omitted.
func BuildSongPaths(matches []resolver.Match, generic bool) []string {
	var paths []string
	for _, m := range matches {
		switch {
		case m.Path != "":
			paths = append(paths, m.Path)
		case m.ReferenceID != "":
			paths = append(paths, reference.NetSearchScheme+m.ReferenceID)
		case generic:
			paths = append(paths, GenericSearchURI(m.Row.Artist, m.Row.Title))
		}
	}
	return paths
}

// GenericSearchURI builds a best-effort VirtualDJ search URI.
func GenericSearchURI(artist, title string) string {
	return "search://" + strings.TrimSpace(artist) + "/" + strings.TrimSpace(title) + "/"
}

func (e *Exporter) target(listName string, opts Options) (Mode, string, error) {
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return "", "", err
	}
	name := listName
	if mode == ModeSaveAsNew {
		if n := strings.TrimSpace(opts.NewName); n != "" {
			name = n
		}
	}
	return mode, name, nil
}

func (e *Exporter) write(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
