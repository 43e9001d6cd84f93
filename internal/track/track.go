// Package track defines the per-run track observation and the parsers that
// turn loosely formatted playlist fields into typed values.
package track

import (
	"strconv"
	"strings"

	"github.com/justestif/go-radio-catalog/internal/identity"
)

// Row is a single observed track from a playlist or a scraped run.
// Duration and Tempo are nil when unknown; Key is empty when unknown.
type Row struct {
	Artist   string
	Title    string
	Duration *float64 // seconds
	Tempo    *float64
	Key      string
}

// CanonicalKey returns the identity key for the row.
func (r Row) CanonicalKey() string {
	return identity.Key(r.Artist, r.Title)
}

// Valid reports whether both artist and title carry non-blank text.
func (r Row) Valid() bool {
	return strings.TrimSpace(r.Artist) != "" && strings.TrimSpace(r.Title) != ""
}

// Display returns the row as "Artist - Title".
func (r Row) Display() string {
	return identity.JoinTrack(r.Artist, r.Title)
}

// FormatTempo renders a tempo without trailing zeros ("128", "127.5").
func FormatTempo(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Float returns a pointer to v. It keeps optional-field literals short.
func Float(v float64) *float64 {
	return &v
}
