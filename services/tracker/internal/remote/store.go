// Package remote holds the persisted copy of the schedule table.
//
// Backends, picked by New in this order unless STORE_BACKEND names one:
// Postgres (DATABASE_URL) > Redis (REDIS_URL) > sqlite (SQLITE_PATH) >
// in-memory (development only). Every backend treats a worksheet as one
// opaque list of rows: Update replaces the whole list.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"go.uber.org/zap"

	"github.com/example/music-odyssey/internal/platform/db"
	"github.com/example/music-odyssey/internal/schedule"
)

// Store reads and overwrites named worksheets.
type Store interface {
	// Read returns the rows of worksheet in stored order. A worksheet that
	// was never written reads as no rows and no error.
	Read(ctx context.Context, worksheet string) ([]schedule.Record, error)
	// Update replaces every row of worksheet. Last writer wins.
	Update(ctx context.Context, worksheet string, rows []schedule.Record) error
	Ping(ctx context.Context) error
}

type Config struct {
	Backend     string
	DatabaseURL string
	RedisURL    string
	SQLitePath  string
	Production  bool
}

const appDir = "music-odyssey"

// New opens the configured backend. The returned func releases it.
func New(ctx context.Context, cfg Config, log *zap.Logger) (Store, func(), error) {
	if log == nil {
		log = zap.NewNop()
	}
	backend := cfg.Backend
	if backend == "" {
		switch {
		case cfg.DatabaseURL != "":
			backend = "postgres"
		case cfg.RedisURL != "":
			backend = "redis"
		case cfg.SQLitePath != "":
			backend = "sqlite"
		default:
			backend = "memory"
		}
	}

	switch backend {
	case "postgres":
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		s := NewPostgresStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("remote store", zap.String("backend", backend))
		return s, pool.Close, nil
	case "redis":
		s, err := NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("remote store", zap.String("backend", backend))
		return s, func() { _ = s.Close() }, nil
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			p, err := DefaultSQLitePath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("remote store", zap.String("backend", backend), zap.String("path", path))
		return s, func() { _ = s.Close() }, nil
	case "memory":
		if cfg.Production {
			return nil, nil, errors.New("production requires DATABASE_URL, REDIS_URL or SQLITE_PATH; in-memory store is not allowed")
		}
		log.Warn("remote store is in-memory; the table is lost on restart")
		return NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// DefaultSQLitePath is the sqlite file under the user's XDG data directory.
func DefaultSQLitePath() (string, error) {
	p, err := xdg.DataFile(filepath.Join(appDir, "tracker.db"))
	if err != nil {
		return "", fmt.Errorf("resolve sqlite path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	return p, nil
}

func encodeRecord(r schedule.Record) ([]byte, error) {
	return json.Marshal(r)
}

func decodeRecord(b []byte) (schedule.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var r schedule.Record
	if err := dec.Decode(&r); err != nil {
		return nil, err
	}
	if r == nil {
		r = schedule.Record{}
	}
	return r, nil
}
