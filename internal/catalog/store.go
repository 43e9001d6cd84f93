package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrCorruptCatalog is returned when the durable catalog exists but cannot
// be parsed. The file is left untouched.
var ErrCorruptCatalog = errors.New("durable catalog is corrupt")

// StablePath is the durable catalog file for a station set.
func StablePath(dir, stations string) string {
	return filepath.Join(dir, "Cumulative_"+stations+".csv")
}

// SnapshotPath is the dated snapshot written alongside the durable file.
func SnapshotPath(dir, stations string, runDate time.Time) string {
	return filepath.Join(dir, "snapshots", "Cumulative_"+stations+"_"+runDate.Format(DateLayout)+".csv")
}

// Load reads the durable catalog at path. A missing file yields an empty
// catalog; anything unparseable yields ErrCorruptCatalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	c, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCatalog, path, err)
	}
	return c, nil
}

// Decode parses a catalog CSV. Errors are returned unwrapped; Load adds
// ErrCorruptCatalog.
func Decode(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range []string{"Artist", "Title", "FirstSeen", "LastSeen"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	get := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	c := New()
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		first, err := time.Parse(DateLayout, get(rec, "FirstSeen"))
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing FirstSeen: %w", line, err)
		}
		last, err := time.Parse(DateLayout, get(rec, "LastSeen"))
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing LastSeen: %w", line, err)
		}

		row := Row{
			Artist:    get(rec, "Artist"),
			Title:     get(rec, "Title"),
			Sources:   ParseSources(get(rec, "Stations")),
			FirstSeen: first,
			LastSeen:  last,
			BPM:       get(rec, "BPM"),
			Key:       get(rec, "Key"),
		}
		if !c.add(row) {
			return nil, fmt.Errorf("line %d: duplicate canonical key %q", line, row.CanonicalKey())
		}
	}
	return c, nil
}

// Encode writes the catalog as CSV in presentation order.
func (c *Catalog) Encode(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range c.Rows() {
		rec := []string{
			r.Artist,
			r.Title,
			r.SourcesString(),
			r.FirstSeen.Format(DateLayout),
			r.LastSeen.Format(DateLayout),
			r.BPM,
			r.Key,
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Save writes the catalog to path atomically: the bytes go to a temporary
// file in the same directory which is then renamed over path.
func (c *Catalog) Save(path string) error {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
