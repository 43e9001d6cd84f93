// Package config loads radiocat settings from the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/justestif/go-radio-catalog/internal/catalog"
	"github.com/justestif/go-radio-catalog/internal/resolver"
)

// Prefix is prepended to every environment variable name.
const Prefix = "RADIOCAT"

// ErrMissingLibraryRoots is returned when no library root is configured and
// the user music directory does not exist.
var ErrMissingLibraryRoots = errors.New("missing RADIOCAT_LIBRARY_ROOTS environment variable")

// Config holds radiocat configuration.
type Config struct {
	LibraryRoots    []string `envconfig:"LIBRARY_ROOTS"`
	IndexPath       string   `envconfig:"INDEX_PATH"`
	VDJDatabasePath string   `envconfig:"VDJ_DATABASE"`
	VDJMyListDir    string   `envconfig:"VDJ_MYLIST_DIR"`
	PlaylistDir     string   `envconfig:"PLAYLIST_DIR" default:"playlists"`
	CatalogDir      string   `envconfig:"CATALOG_DIR" default:"outputs"`
	Stations        string   `envconfig:"STATIONS" default:"All_Stations"`
	LockPath        string   `envconfig:"LOCK_PATH"`

	Threshold         int     `envconfig:"THRESHOLD" default:"85"`
	CandidateWindow   int     `envconfig:"CANDIDATE_WINDOW" default:"12"`
	CandidateLimit    int     `envconfig:"CANDIDATE_LIMIT" default:"8"`
	RescueMaxDelta    float64 `envconfig:"RESCUE_MAX_DELTA" default:"4"`
	RescueFloorOffset int     `envconfig:"RESCUE_FLOOR_OFFSET" default:"2"`

	DatabaseURL  string        `envconfig:"DATABASE_URL"`
	SyncCooldown time.Duration `envconfig:"SYNC_COOLDOWN" default:"1h"`
	ListenAddr   string        `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8080"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads .env files (default ".env"; missing files are ignored) and
// then the RADIOCAT_* environment. Variables already set in the
// environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if cfg.IndexPath == "" {
		cfg.IndexPath = filepath.Join(xdg.CacheHome, "radiocat", "library.db")
	}
	if cfg.LockPath == "" {
		cfg.LockPath = filepath.Join(cfg.CatalogDir, catalog.LockFileName)
	}
	return &cfg, nil
}

// Roots returns the configured library roots, falling back to the user's
// music directory when it exists.
func (c *Config) Roots() ([]string, error) {
	if len(c.LibraryRoots) > 0 {
		return c.LibraryRoots, nil
	}
	if dir := xdg.UserDirs.Music; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return []string{dir}, nil
		}
	}
	return nil, ErrMissingLibraryRoots
}

// Resolver returns the resolver tuning.
func (c *Config) Resolver() resolver.Config {
	return resolver.Config{
		Threshold:         c.Threshold,
		CandidateWindow:   c.CandidateWindow,
		CandidateLimit:    c.CandidateLimit,
		RescueMaxDelta:    c.RescueMaxDelta,
		RescueFloorOffset: c.RescueFloorOffset,
	}
}
