// Package session owns the live schedule table: it loads it from the remote
// store (falling back to the seed artifact), writes it back whole, and
// applies listen submissions.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/music-odyssey/internal/platform/events"
	"github.com/example/music-odyssey/internal/schedule"
	"github.com/example/music-odyssey/services/tracker/internal/cache"
	"github.com/example/music-odyssey/services/tracker/internal/metrics"
	"github.com/example/music-odyssey/services/tracker/internal/remote"
)

var (
	// ErrUnavailable means neither the remote store nor the seed artifact
	// could provide a table, or a write to the remote store failed.
	ErrUnavailable   = errors.New("schedule store unavailable")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// DefaultRating is recorded when a submission carries no rating.
const DefaultRating = 3

// Load sources reported in LoadReport.Source.
const (
	SourceCache  = "cache"
	SourceRemote = "remote"
	SourceSeed   = "seed"
	SourceNone   = "none"
)

type Options struct {
	SeedPath  string
	Worksheet string
	MinRows   int
	Schema    schedule.SchemaVersion
	Cache     cache.Cache
	Events    *events.Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Session is the explicit context every table operation runs against.
// It holds no table itself; callers load a fresh copy per request.
type Session struct {
	remote    remote.Store
	seedPath  string
	worksheet string
	minRows   int
	schema    schedule.SchemaVersion
	cache     cache.Cache
	events    *events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func New(store remote.Store, opts Options) *Session {
	s := &Session{
		remote:    store,
		seedPath:  opts.SeedPath,
		worksheet: opts.Worksheet,
		minRows:   opts.MinRows,
		schema:    opts.Schema,
		cache:     opts.Cache,
		events:    opts.Events,
		metrics:   opts.Metrics,
		log:       opts.Logger,
	}
	if s.worksheet == "" {
		s.worksheet = "Database"
	}
	if s.minRows <= 0 {
		s.minRows = 10
	}
	if s.schema == 0 {
		s.schema = schedule.SchemaV2
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

func (s *Session) Schema() schedule.SchemaVersion { return s.schema }

// LoadReport says where a table came from and what went wrong on the way.
type LoadReport struct {
	Source      string   `json:"source"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

func (r *LoadReport) addf(format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, fmt.Sprintf(format, args...))
}

func (s *Session) cacheKey() string { return "table:" + s.worksheet }

// Load returns the normalized table. The remote worksheet is used unless
// it is unreadable, empty or has fewer than MinRows dated rows; the seed artifact is
// then read, backfilled, pushed to the remote store and the table cache is
// invalidated. When both sources fail Load returns an empty table and an
// error wrapping ErrUnavailable.
func (s *Session) Load(ctx context.Context) (*schedule.Table, LoadReport, error) {
	var report LoadReport

	if s.cache != nil {
		var rows []schedule.Record
		ok, err := s.cache.Get(ctx, s.cacheKey(), &rows)
		if err != nil {
			s.log.Warn("session: table cache read failed", zap.Error(err))
		} else if ok {
			report.Source = SourceCache
			s.metrics.TableLoad(SourceCache)
			return schedule.Normalize(rows, s.schema), report, nil
		}
	}

	rows, err := s.remote.Read(ctx, s.worksheet)
	switch {
	case err != nil:
		s.log.Warn("session: remote read failed", zap.String("worksheet", s.worksheet), zap.Error(err))
		report.addf("remote store read failed: %v", err)
	case len(rows) == 0:
		report.addf("remote worksheet %q is empty", s.worksheet)
	default:
		// Rows without a usable date vanish in Normalize, so the size check
		// runs on the normalized table.
		table := schedule.Normalize(rows, s.schema)
		if table.Len() >= s.minRows {
			s.fillCache(ctx, table)
			report.Source = SourceRemote
			s.metrics.TableLoad(SourceRemote)
			return table, report, nil
		}
		report.addf("remote worksheet %q has %d usable rows of %d, expected at least %d",
			s.worksheet, table.Len(), len(rows), s.minRows)
	}

	seed, serr := schedule.ReadSeedFile(s.seedPath)
	if serr != nil {
		s.log.Error("session: seed fallback failed", zap.String("path", s.seedPath), zap.Error(serr))
		report.addf("seed file unavailable: %v", serr)
		report.Source = SourceNone
		s.metrics.TableLoad(SourceNone)
		return schedule.NewTable(nil), report, fmt.Errorf("%w: %s", ErrUnavailable, strings.Join(report.Diagnostics, "; "))
	}

	table := schedule.Normalize(schedule.Backfill(seed, s.schema), s.schema)
	perr := s.remote.Update(ctx, s.worksheet, table.Records(s.schema))
	s.metrics.TableSave(perr)
	if perr != nil {
		s.log.Warn("session: pushing seed table failed", zap.Error(perr))
		report.addf("could not push the seed table to the remote store: %v", perr)
	} else {
		s.log.Info("session: remote worksheet bootstrapped from seed",
			zap.String("worksheet", s.worksheet), zap.Int("rows", table.Len()))
		s.events.Publish(events.SubjectTableBootstrapped, "table_bootstrapped", map[string]any{
			"worksheet": s.worksheet,
			"rows":      table.Len(),
		})
	}
	s.invalidate(ctx)

	report.Source = SourceSeed
	s.metrics.TableLoad(SourceSeed)
	return table, report, nil
}

// Save overwrites the remote worksheet with t and invalidates the table
// cache. There is no conflict detection: the last writer wins.
func (s *Session) Save(ctx context.Context, t *schedule.Table) error {
	err := s.remote.Update(ctx, s.worksheet, t.Records(s.schema))
	s.metrics.TableSave(err)
	s.invalidate(ctx)
	if err != nil {
		s.log.Error("session: save failed", zap.String("worksheet", s.worksheet), zap.Error(err))
		return fmt.Errorf("%w: save %s: %w", ErrUnavailable, s.worksheet, err)
	}
	s.events.Publish(events.SubjectTableSaved, "table_saved", map[string]any{
		"worksheet": s.worksheet,
		"rows":      t.Len(),
	})
	return nil
}

func (s *Session) fillCache(ctx context.Context, t *schedule.Table) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(), t.Records(s.schema)); err != nil {
		s.log.Warn("session: table cache write failed", zap.Error(err))
	}
}

func (s *Session) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey()); err != nil {
		s.log.Warn("session: table cache invalidation failed", zap.Error(err))
	}
}
