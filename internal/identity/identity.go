// Package identity turns raw artist and title text into the canonical keys
// used to deduplicate catalog rows and match them against library files.
package identity

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Separator joins the normalized artist and title inside a canonical key.
const Separator = " - "

// Go's \b only knows ASCII word characters, so "ft" in "kræft" would look
// like a standalone word. The patterns below capture an explicit Unicode
// boundary on each side and put it back with ${1} ${2}.
var (
	featRe      = regexp.MustCompile(`(^|[^\p{L}\p{N}_])(?:feat|ft|featuring)\.?($|[^\p{L}\p{N}_])`)
	qualifierRe = regexp.MustCompile(`\s*[(\[{][^)\]}]*(?:remix|edit|version|remaster|live|extended|mix)[^)\]}]*[)\]}]`)
	editRe      = regexp.MustCompile(`(^|[^\p{L}\p{N}_])(?:radio|club|extended|clean|dirty)\s+edit($|[^\p{L}\p{N}_])`)
	remasterRe  = regexp.MustCompile(`(^|[^\p{L}\p{N}_])remaster(?:ed)?(?:\s+\d{2,4})?($|[^\p{L}\p{N}_])`)
	spaceRe     = regexp.MustCompile(`\s+`)
	danglingRe  = regexp.MustCompile(`^(?:-+\s+)+|(?:\s+-+)+$`)
)

var punctuation = strings.NewReplacer(
	"â€“", "-",
	"–", "-",
	"—", "-",
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
)

// maxPasses bounds the fixed-point loop in Normalize. Each pass after the
// first only removes text, so the loop settles long before this.
const maxPasses = 8

// Normalize lowercases s and strips featuring markers, version qualifiers and
// remaster years, then collapses whitespace. Normalize(Normalize(s)) equals
// Normalize(s) for every input.
func Normalize(s string) string {
	out := pass(s)
	for i := 0; i < maxPasses; i++ {
		next := pass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func pass(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctuation.Replace(s)

	s = featRe.ReplaceAllString(s, "${1} ${2}")
	s = qualifierRe.ReplaceAllString(s, " ")
	s = editRe.ReplaceAllString(s, "${1} ${2}")
	s = remasterRe.ReplaceAllString(s, "${1} ${2}")

	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, " & ", " and ")
	s = spaceRe.ReplaceAllString(s, " ")

	// "Song - Radio Edit" leaves a dangling separator behind.
	s = danglingRe.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(s)
}

// Key returns the canonical key for an artist and title pair.
func Key(artist, title string) string {
	return Normalize(artist) + Separator + Normalize(title)
}

// SplitTrack splits a combined "Artist - Title" string on the first
// separator. Without a separator the whole string is the title and the
// artist is empty.
func SplitTrack(combined string) (artist, title string) {
	combined = strings.TrimSpace(combined)
	if i := strings.Index(combined, Separator); i >= 0 {
		return strings.TrimSpace(combined[:i]), strings.TrimSpace(combined[i+len(Separator):])
	}
	return "", combined
}

// JoinTrack is the inverse of SplitTrack for display purposes.
func JoinTrack(artist, title string) string {
	if artist == "" {
		return title
	}
	return artist + Separator + title
}
