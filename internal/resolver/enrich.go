package resolver

import (
	"github.com/justestif/go-radio-catalog/internal/library"
	"github.com/justestif/go-radio-catalog/internal/reference"
	"github.com/justestif/go-radio-catalog/internal/track"
)

// Enrich returns a copy of rows with missing tempo and key filled in. The
// reference index wins; the first library file under the same canonical
// key fills whatever is still missing. Values already on a row are kept.
func Enrich(rows []track.Row, lib *library.Index, ref *reference.Index) []track.Row {
	out := make([]track.Row, len(rows))
	for i, row := range rows {
		key := row.CanonicalKey()

		if e, ok := ref.Lookup(key); ok {
			if row.Tempo == nil && e.Tempo != nil {
				row.Tempo = track.Float(*e.Tempo)
			}
			if row.Key == "" {
				row.Key = e.MusicalKey
			}
		}

		if row.Tempo == nil || row.Key == "" {
			if hits := lib.Lookup(key); len(hits) > 0 {
				first := hits[0]
				if row.Tempo == nil && first.TagTempo != nil {
					row.Tempo = track.Float(*first.TagTempo)
				}
				if row.Key == "" {
					row.Key = first.TagKey
				}
			}
		}
		out[i] = row
	}
	return out
}
