package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/example/music-odyssey/internal/platform/config"
	"github.com/example/music-odyssey/internal/schedule"
)

// Config holds the tracker settings that are not part of the shared
// platform AppConfig.
type Config struct {
	SeedPath      string
	Worksheet     string
	MinRows       int
	SchemaVersion schedule.SchemaVersion

	StoreBackend string
	DatabaseURL  string
	RedisURL     string
	SQLitePath   string

	NATSURL                  string
	CacheInvalidationSubject string
	TableCacheTTL            time.Duration
	EnrichCacheTTL           time.Duration

	LookupTimeout      time.Duration
	ITunesBaseURL      string
	WikiLang           string
	WikiBaseURL        string
	MusicBrainzBaseURL string
	MusicBrainzContact string

	CBMaxRequests      uint32
	CBInterval         time.Duration
	CBTimeout          time.Duration
	CBFailureThreshold uint32

	JWTSecret         []byte
	OwnerPasswordHash string
	TokenTTL          time.Duration
}

// AuthEnabled reports whether mutating routes require an owner token.
func (c Config) AuthEnabled() bool {
	return len(c.JWTSecret) > 0 && c.OwnerPasswordHash != ""
}

func Load() (Config, error) {
	version, err := schedule.ParseSchemaVersion(config.EnvInt("SCHEMA_VERSION", int(schedule.SchemaV2)))
	if err != nil {
		return Config{}, fmt.Errorf("SCHEMA_VERSION: %w", err)
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND")))
	switch backend {
	case "", "memory", "postgres", "redis", "sqlite":
	default:
		return Config{}, fmt.Errorf("STORE_BACKEND %q is not supported", backend)
	}

	cfg := Config{
		SeedPath:      config.EnvString("SEED_PATH", "schedule_seed.json"),
		Worksheet:     config.EnvString("WORKSHEET", "Database"),
		MinRows:       config.EnvInt("MIN_ROWS", 10),
		SchemaVersion: version,

		StoreBackend: backend,
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:     strings.TrimSpace(os.Getenv("REDIS_URL")),
		SQLitePath:   strings.TrimSpace(os.Getenv("SQLITE_PATH")),

		NATSURL:                  strings.TrimSpace(os.Getenv("NATS_URL")),
		CacheInvalidationSubject: config.EnvString("CACHE_INVALIDATION_SUBJECT", "tracker.cache.invalidate"),
		TableCacheTTL:            config.EnvDuration("TABLE_CACHE_TTL", 60*time.Second),
		EnrichCacheTTL:           config.EnvDuration("ENRICH_CACHE_TTL", 0),

		LookupTimeout:      config.EnvDuration("LOOKUP_TIMEOUT", 5*time.Second),
		ITunesBaseURL:      config.EnvString("ITUNES_BASE_URL", "https://itunes.apple.com"),
		WikiLang:           config.EnvString("WIKI_LANG", "fr"),
		WikiBaseURL:        strings.TrimSpace(os.Getenv("WIKI_BASE_URL")),
		MusicBrainzBaseURL: config.EnvString("MUSICBRAINZ_BASE_URL", "https://musicbrainz.org/ws/2"),
		MusicBrainzContact: strings.TrimSpace(os.Getenv("MUSICBRAINZ_CONTACT")),

		CBMaxRequests:      uint32(config.EnvInt("CB_MAX_REQUESTS", 1)),
		CBInterval:         config.EnvDuration("CB_INTERVAL", 60*time.Second),
		CBTimeout:          config.EnvDuration("CB_TIMEOUT", 30*time.Second),
		CBFailureThreshold: uint32(config.EnvInt("CB_FAILURE_THRESHOLD", 5)),

		JWTSecret:         []byte(strings.TrimSpace(os.Getenv("JWT_SECRET"))),
		OwnerPasswordHash: strings.TrimSpace(os.Getenv("OWNER_PASSWORD_HASH")),
		TokenTTL:          config.EnvDuration("TOKEN_TTL", 30*24*time.Hour),
	}
	if cfg.MinRows == 0 {
		cfg.MinRows = 1
	}
	if cfg.LookupTimeout <= 0 {
		return Config{}, errors.New("LOOKUP_TIMEOUT must be positive")
	}
	if (len(cfg.JWTSecret) > 0) != (cfg.OwnerPasswordHash != "") {
		return Config{}, errors.New("JWT_SECRET and OWNER_PASSWORD_HASH must be set together")
	}
	return cfg, nil
}
