package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/justestif/go-radio-catalog/internal/catalog"
	"github.com/justestif/go-radio-catalog/internal/identity"
	"github.com/justestif/go-radio-catalog/internal/resolver"
	"github.com/justestif/go-radio-catalog/internal/track"
)

// DefaultListLimit caps /api/catalog when no limit is given.
const DefaultListLimit = 100

// maxResolveBody bounds the /api/resolve request body.
const maxResolveBody = 4 << 20

// CatalogSource loads the current durable catalog.
type CatalogSource interface {
	Load() (*catalog.Catalog, error)
}

// CatalogFile reads the catalog from a CSV file on every request.
type CatalogFile string

// Load implements CatalogSource.
func (f CatalogFile) Load() (*catalog.Catalog, error) {
	return catalog.Load(string(f))
}

// MatchResolver resolves playlist rows.
type MatchResolver interface {
	Resolve(rows []track.Row) []resolver.Match
}

// Handlers contains HTTP handlers for the JSON API.
type Handlers struct {
	catalog  CatalogSource
	resolver MatchResolver
	log      logrus.FieldLogger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(source CatalogSource, res MatchResolver, log logrus.FieldLogger) *Handlers {
	return &Handlers{
		catalog:  source,
		resolver: res,
		log:      log,
	}
}

// CatalogRow is the JSON form of a catalog row.
type CatalogRow struct {
	CanonicalKey string   `json:"key"`
	Artist       string   `json:"artist"`
	Title        string   `json:"title"`
	Stations     []string `json:"stations"`
	FirstSeen    string   `json:"first_seen"`
	LastSeen     string   `json:"last_seen"`
	BPM          string   `json:"bpm,omitempty"`
	MusicalKey   string   `json:"musical_key,omitempty"`
}

func toCatalogRow(r catalog.Row) CatalogRow {
	stations := r.Sources
	if stations == nil {
		stations = []string{}
	}
	return CatalogRow{
		CanonicalKey: r.CanonicalKey(),
		Artist:       r.Artist,
		Title:        r.Title,
		Stations:     stations,
		FirstSeen:    r.FirstSeen.Format(catalog.DateLayout),
		LastSeen:     r.LastSeen.Format(catalog.DateLayout),
		BPM:          r.BPM,
		MusicalKey:   r.Key,
	}
}

// CatalogPage is the /api/catalog response.
type CatalogPage struct {
	Total int          `json:"total"`
	Rows  []CatalogRow `json:"rows"`
}

// ResolveRequestRow is one row of a /api/resolve request.
type ResolveRequestRow struct {
	Artist   string   `json:"artist"`
	Title    string   `json:"title"`
	Duration *float64 `json:"duration,omitempty"`
}

// MatchResult is the JSON form of a resolver match.
type MatchResult struct {
	Artist      string  `json:"artist"`
	Title       string  `json:"title"`
	Status      string  `json:"status"`
	Path        string  `json:"path,omitempty"`
	ReferenceID string  `json:"reference_id,omitempty"`
	Score       float64 `json:"score"`
	Rescued     bool    `json:"rescued,omitempty"`
}

// ResolveResponse is the /api/resolve response.
type ResolveResponse struct {
	Matches []MatchResult    `json:"matches"`
	Summary resolver.Summary `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListCatalog returns catalog rows in catalog order (GET /api/catalog).
func (h *Handlers) ListCatalog(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	c, err := h.catalog.Load()
	if err != nil {
		h.log.WithError(err).Error("loading catalog")
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	rows := c.Rows()
	page := CatalogPage{Total: len(rows), Rows: []CatalogRow{}}
	for i, row := range rows {
		if limit > 0 && i >= limit {
			break
		}
		page.Rows = append(page.Rows, toCatalogRow(row))
	}
	writeJSON(w, http.StatusOK, page)
}

// GetCatalogRow returns one row by canonical key or "Artist - Title"
// (GET /api/catalog/{key}).
func (h *Handlers) GetCatalogRow(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key")
		return
	}
	key := identity.Key(identity.SplitTrack(raw))

	c, err := h.catalog.Load()
	if err != nil {
		h.log.WithError(err).Error("loading catalog")
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	row, ok := c.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, toCatalogRow(row))
}

// Resolve matches posted rows against the library and reference index
// (POST /api/resolve).
func (h *Handlers) Resolve(w http.ResponseWriter, r *http.Request) {
	if h.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "resolver not configured")
		return
	}

	var req []ResolveRequestRow
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxResolveBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON array of {artist, title, duration}")
		return
	}

	rows := make([]track.Row, 0, len(req))
	for _, rr := range req {
		row := track.Row{Artist: rr.Artist, Title: rr.Title, Duration: rr.Duration}
		if !row.Valid() {
			continue
		}
		rows = append(rows, row)
	}

	matches := h.resolver.Resolve(rows)
	resp := ResolveResponse{
		Matches: make([]MatchResult, 0, len(matches)),
		Summary: resolver.Summarize(matches),
	}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, MatchResult{
			Artist:      m.Row.Artist,
			Title:       m.Row.Title,
			Status:      string(m.Status()),
			Path:        m.Path,
			ReferenceID: m.ReferenceID,
			Score:       m.Score,
			Rescued:     m.Rescued,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
