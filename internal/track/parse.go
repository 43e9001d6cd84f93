package track

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	camelotRe = regexp.MustCompile(`(?i)\b(?:1[0-2]|[1-9])[AB]\b`)
	keyNameRe = regexp.MustCompile(`\b([A-G](?:#|b)?(?:maj|min|m|M)?)\b`)
)

// ParseDuration parses "225", "225.4", "3:45" or "1:02:03" into seconds.
func ParseDuration(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, ok := parseFinite(s); ok {
		return v, true
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		m, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, false
		}
		sec, ok := parseFinite(strings.TrimSpace(parts[1]))
		if !ok {
			return 0, false
		}
		return float64(m)*60 + sec, true
	case 3:
		h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, false
		}
		m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, false
		}
		sec, ok := parseFinite(strings.TrimSpace(parts[2]))
		if !ok {
			return 0, false
		}
		return float64(h)*3600 + float64(m)*60 + sec, true
	}
	return 0, false
}

// ExtractBPM parses a tempo field. Values like "128 BPM" yield the first
// number in the string.
func ExtractBPM(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, ok := parseFinite(s); ok {
		return v, true
	}
	m := numberRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return parseFinite(m[1])
}

// ExtractKey normalizes a musical key field. Camelot codes are upper-cased,
// note names have maj/min shortened to M/m, anything else is returned as is.
func ExtractKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := camelotRe.FindString(s); m != "" {
		return strings.ToUpper(m)
	}
	if m := keyNameRe.FindStringSubmatch(s); m != nil {
		k := strings.Replace(m[1], "maj", "M", 1)
		return strings.Replace(k, "min", "m", 1)
	}
	return s
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
