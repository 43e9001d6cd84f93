package export

import (
	"bufio"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/justestif/go-radio-catalog/internal/resolver"
)

var songPathRe = regexp.MustCompile(`<song\s+[^>]*path="([^"]+)"`)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeAttr escapes s for use inside a double-quoted XML attribute.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// ParseVDJFolderPaths returns the song path values of a folder file in
// order, with XML entities unescaped.
func ParseVDJFolderPaths(r io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if m := songPathRe.FindStringSubmatch(sc.Text()); m != nil {
			paths = append(paths, html.UnescapeString(m[1]))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading folder: %w", err)
	}
	return paths, nil
}

// RenderVDJFolder renders song paths as a VirtualDJ folder document.
func RenderVDJFolder(paths []string) string {
	var b strings.Builder
	b.WriteString("<VirtualFolder>\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "  <song path=\"%s\" />\n", EscapeAttr(p))
	}
	b.WriteString("</VirtualFolder>\n")
	return b.String()
}

// VDJFolder writes matches as <dir>/<name>.vdjfolder. In add mode the
// existing entries are kept in order and only unseen paths are appended.
func (e *Exporter) VDJFolder(listName string, matches []resolver.Match, opts Options) (string, error) {
	mode, name, err := e.target(listName, opts)
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, name+".vdjfolder")
	paths := BuildSongPaths(matches, opts.GenericSearch)

	if mode == ModeAdd {
		existing, err := readVDJFolder(path)
		if err != nil {
			return "", err
		}
		paths = appendNew(existing, paths)
	}

	if err := e.write(path, RenderVDJFolder(paths)); err != nil {
		return "", err
	}
	e.log.WithFields(logrus.Fields{
		"path":    path,
		"mode":    mode,
		"entries": len(paths),
	}).Info("exported folder")
	return path, nil
}

func readVDJFolder(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening existing folder: %w", err)
	}
	defer f.Close()
	return ParseVDJFolderPaths(f)
}

// appendNew returns existing followed by the entries of add not already
// present, keeping the first occurrence.
func appendNew(existing, add []string) []string {
	seen := make(map[string]bool, len(existing)+len(add))
	out := make([]string, 0, len(existing)+len(add))
	for _, p := range existing {
		seen[p] = true
		out = append(out, p)
	}
	for _, p := range add {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
