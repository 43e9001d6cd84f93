// Package resolver matches wanted tracks against the local library index and
// the reference index, using exact canonical keys first and token-set fuzzy
// matching with duration tie-breaks second.
package resolver

import (
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/justestif/go-radio-catalog/internal/library"
	"github.com/justestif/go-radio-catalog/internal/reference"
	"github.com/justestif/go-radio-catalog/internal/track"
)

// ExactScore is the confidence of an exact canonical key hit.
const ExactScore = 100

// Status classifies a match result.
type Status string

const (
	StatusLocal     Status = "local"
	StatusReference Status = "reference"
	StatusMissing   Status = "missing"
)

// Config holds the tunable matching parameters.
type Config struct {
	// Threshold is the minimum fuzzy score accepted outright.
	Threshold int
	// CandidateWindow widens the pre-filter to Threshold-CandidateWindow so
	// near misses survive until the duration tie-break.
	CandidateWindow int
	// CandidateLimit is the number of top fuzzy candidates considered.
	CandidateLimit int
	// RescueMaxDelta is the largest duration difference, in seconds, that
	// rescues a below-threshold candidate.
	RescueMaxDelta float64
	// RescueFloorOffset sets the rescued score floor at Threshold-RescueFloorOffset.
	RescueFloorOffset int
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:         85,
		CandidateWindow:   12,
		CandidateLimit:    8,
		RescueMaxDelta:    4,
		RescueFloorOffset: 2,
	}
}

// Match is the resolution outcome for one wanted row.
type Match struct {
	Row         track.Row
	Path        string  // local file, empty when unresolved locally
	Score       float64 // 0-100
	ReferenceID string  // empty when no reference link is known
	Rescued     bool    // accepted below threshold on duration evidence
}

// Status reports where the match points.
func (m Match) Status() Status {
	switch {
	case m.Path != "":
		return StatusLocal
	case m.ReferenceID != "":
		return StatusReference
	default:
		return StatusMissing
	}
}

// Summary counts matches per status.
type Summary struct {
	Total     int `json:"total"`
	Local     int `json:"local"`
	Reference int `json:"reference"`
	Missing   int `json:"missing"`
	Rescued   int `json:"rescued"`
}

// Summarize counts matches per status.
func Summarize(matches []Match) Summary {
	s := Summary{Total: len(matches)}
	for _, m := range matches {
		switch m.Status() {
		case StatusLocal:
			s.Local++
		case StatusReference:
			s.Reference++
		default:
			s.Missing++
		}
		if m.Rescued {
			s.Rescued++
		}
	}
	return s
}

// Resolver resolves rows against a library index and a reference index.
type Resolver struct {
	library   *library.Index
	reference *reference.Index
	cfg       Config
	log       logrus.FieldLogger
	topK      func(key string, keys []string, limit int) []Candidate
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConfig replaces all matching parameters. Non-positive values keep
// their defaults.
func WithConfig(cfg Config) Option {
	return func(r *Resolver) {
		def := DefaultConfig()
		if cfg.Threshold <= 0 {
			cfg.Threshold = def.Threshold
		}
		if cfg.CandidateWindow <= 0 {
			cfg.CandidateWindow = def.CandidateWindow
		}
		if cfg.CandidateLimit <= 0 {
			cfg.CandidateLimit = def.CandidateLimit
		}
		if cfg.RescueMaxDelta <= 0 {
			cfg.RescueMaxDelta = def.RescueMaxDelta
		}
		if cfg.RescueFloorOffset <= 0 {
			cfg.RescueFloorOffset = def.RescueFloorOffset
		}
		r.cfg = cfg
	}
}

// WithThreshold sets only the acceptance threshold.
func WithThreshold(threshold int) Option {
	return func(r *Resolver) {
		if threshold > 0 {
			r.cfg.Threshold = threshold
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// New creates a Resolver. Either index may be nil or empty.
func New(lib *library.Index, ref *reference.Index, opts ...Option) *Resolver {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	r := &Resolver{
		library:   lib,
		reference: ref,
		cfg:       DefaultConfig(),
		log:       discard,
		topK:      TopCandidates,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the effective matching parameters.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve enriches rows with reference and library metadata and then
// resolves each one. Results are in input order.
func (r *Resolver) Resolve(rows []track.Row) []Match {
	rows = Enrich(rows, r.library, r.reference)
	keys := r.library.Keys()

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		m := r.resolveLocal(row, keys)
		if m.Path == "" {
			if e, ok := r.reference.Lookup(row.CanonicalKey()); ok {
				m.ReferenceID = e.ReferenceID
			}
		}
		r.log.WithFields(logrus.Fields{
			"track":  row.Display(),
			"status": m.Status(),
			"score":  m.Score,
		}).Debug("resolved track")
		matches = append(matches, m)
	}
	return matches
}

func (r *Resolver) resolveLocal(row track.Row, keys []string) Match {
	m := Match{Row: row}
	key := row.CanonicalKey()

	if hits := r.library.Lookup(key); len(hits) > 0 {
		t, _ := library.ClosestByDuration(hits, row.Duration)
		m.Path = t.Path
		m.Score = ExactScore
		return m
	}
	if len(keys) == 0 {
		return m
	}

	floor := math.Max(0, float64(r.cfg.Threshold-r.cfg.CandidateWindow))
	var candidates []Candidate
	for _, c := range r.topK(key, keys, r.cfg.CandidateLimit) {
		if c.Score >= floor {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return m
	}

	chosen, delta, hasDelta := r.choose(candidates, row.Duration)
	m.Score = chosen.Score

	threshold := float64(r.cfg.Threshold)
	switch {
	case chosen.Score >= threshold:
		m.Path = chosen.Path
	case hasDelta && delta <= r.cfg.RescueMaxDelta:
		m.Path = chosen.Path
		m.Score = math.Max(chosen.Score, threshold-float64(r.cfg.RescueFloorOffset))
		m.Rescued = true
	}
	return m
}

type choice struct {
	Candidate
	Path string
}

// choose prefers the candidate whose file duration is closest to want, with
// higher score breaking ties. Without duration evidence it takes the
// highest score; candidates arrive sorted by score so that is the first.
func (r *Resolver) choose(candidates []Candidate, want *float64) (choice, float64, bool) {
	best := choice{Candidate: candidates[0]}
	if t, ok := library.ClosestByDuration(r.library.Lookup(candidates[0].Key), want); ok {
		best.Path = t.Path
	}
	if want == nil {
		return best, 0, false
	}

	bestDelta := math.Inf(1)
	found := false
	for _, c := range candidates {
		t, ok := library.ClosestByDuration(r.library.Lookup(c.Key), want)
		if !ok || t.Duration == nil {
			continue
		}
		delta := math.Abs(*t.Duration - *want)
		if delta < bestDelta || (delta == bestDelta && c.Score > best.Score) {
			best = choice{Candidate: c, Path: t.Path}
			bestDelta = delta
			found = true
		}
	}
	if !found {
		return best, 0, false
	}
	return best, bestDelta, true
}
