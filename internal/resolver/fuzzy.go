package resolver

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil/metrics"
)

// indel is a Levenshtein metric where a substitution costs a deletion plus
// an insertion, which makes its distance the insert/delete edit distance.
var indel = &metrics.Levenshtein{
	CaseSensitive: true,
	InsertCost:    1,
	DeleteCost:    1,
	ReplaceCost:   2,
}

// Candidate is a library key scored against a wanted key.
type Candidate struct {
	Key   string
	Score float64
}

// TokenSetRatio scores two strings from 0 to 100, ignoring word order and
// duplicated words. A string whose words are a subset of the other's scores
// 100.
func TokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var sect, diffAB, diffBA []string
	for tok := range setA {
		if setB[tok] {
			sect = append(sect, tok)
		} else {
			diffAB = append(diffAB, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			diffBA = append(diffBA, tok)
		}
	}
	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	sort.Strings(sect)
	sort.Strings(diffAB)
	sort.Strings(diffBA)
	joinedAB := strings.Join(diffAB, " ")
	joinedBA := strings.Join(diffBA, " ")

	sectLen := utf8.RuneCountInString(strings.Join(sect, " "))
	abLen := utf8.RuneCountInString(joinedAB)
	baLen := utf8.RuneCountInString(joinedBA)

	sep := 0
	if sectLen > 0 {
		sep = 1
	}
	// Lengths of "sect diffAB" and "sect diffBA"; the shared prefix cancels
	// out of their distance, so only the differences are compared.
	sectABLen := sectLen + sep + abLen
	sectBALen := sectLen + sep + baLen

	best := normalizedSimilarity(indel.Distance(joinedAB, joinedBA), sectABLen+sectBALen)
	if sectLen == 0 {
		return best
	}

	if r := normalizedSimilarity(sep+abLen, sectLen+sectABLen); r > best {
		best = r
	}
	if r := normalizedSimilarity(sep+baLen, sectLen+sectBALen); r > best {
		best = r
	}
	return best
}

// TopCandidates scores key against every entry of keys and returns the
// best limit of them, highest score first, ties broken by key.
func TopCandidates(key string, keys []string, limit int) []Candidate {
	out := make([]Candidate, 0, len(keys))
	for _, k := range keys {
		out = append(out, Candidate{Key: k, Score: TokenSetRatio(key, k)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func normalizedSimilarity(dist, lensum int) float64 {
	if lensum == 0 {
		return 100
	}
	return 100 * (1 - float64(dist)/float64(lensum))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}
