package export

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/justestif/go-radio-catalog/internal/resolver"
)

// M3UEntry is one playlist item: a display line and a path line.
type M3UEntry struct {
	Display string
	Path    string
}

// ExtInf returns the #EXTINF line of the entry.
func (e M3UEntry) ExtInf() string {
	return "#EXTINF:-1," + e.Display
}

// BuildM3UEntries returns entries for locally resolved matches only.
func BuildM3UEntries(matches []resolver.Match) []M3UEntry {
	var entries []M3UEntry
	for _, m := range matches {
		if m.Path == "" {
			continue
		}
		entries = append(entries, M3UEntry{
			Display: m.Row.Artist + " - " + m.Row.Title,
			Path:    m.Path,
		})
	}
	return entries
}

// ParseM3UPaths returns the path lines of an M3U8 document in order,
// ignoring blanks and comments.
func ParseM3UPaths(text string) []string {
	var paths []string
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	return paths
}

// RenderM3U renders a complete M3U8 document.
func RenderM3U(entries []M3UEntry) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	writeEntries(&b, entries)
	return b.String()
}

func writeEntries(b *strings.Builder, entries []M3UEntry) {
	for _, e := range entries {
		b.WriteString(e.ExtInf())
		b.WriteByte('\n')
		b.WriteString(e.Path)
		b.WriteByte('\n')
	}
}

// M3U8 writes locally resolved matches as <dir>/<name>.m3u8. In add mode
// the existing text is kept byte for byte and unseen entries are appended;
// the file is not touched when there is nothing new.
func (e *Exporter) M3U8(listName string, matches []resolver.Match, opts Options) (string, error) {
	mode, name, err := e.target(listName, opts)
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, name+".m3u8")
	entries := BuildM3UEntries(matches)

	content := RenderM3U(entries)
	if mode == ModeAdd {
		existing, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return "", fmt.Errorf("reading existing playlist: %w", err)
		default:
			added := newEntries(ParseM3UPaths(string(existing)), entries)
			if len(added) == 0 {
				e.log.WithField("path", path).Debug("playlist already up to date")
				return path, nil
			}
			var b strings.Builder
			b.Write(existing)
			if len(existing) > 0 && existing[len(existing)-1] != '\n' {
				b.WriteByte('\n')
			}
			writeEntries(&b, added)
			content = b.String()
			entries = added
		}
	}

	if err := e.write(path, content); err != nil {
		return "", err
	}
	e.log.WithFields(logrus.Fields{
		"path":    path,
		"mode":    mode,
		"entries": len(entries),
	}).Info("exported playlist")
	return path, nil
}

func newEntries(existing []string, entries []M3UEntry) []M3UEntry {
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p] = true
	}
	var out []M3UEntry
	for _, e := range entries {
		if seen[e.Path] {
			continue
		}
		seen[e.Path] = true
		out = append(out, e)
	}
	return out
}
