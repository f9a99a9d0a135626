package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/music-odyssey/services/tracker/internal/cache"
	"github.com/example/music-odyssey/services/tracker/internal/metrics"
)

// Defaults used whenever a lookup does not succeed.
const (
	DefaultCoverURL = "https://upload.wikimedia.org/wikipedia/commons/thumb/b/b6/12in-Vinyl-LP-Record-Angle.jpg/640px-12in-Vinyl-LP-Record-Angle.jpg"
	DefaultSummary  = "No encyclopedia article found for this album."
)

// Lookup sources, as reported in metrics.
const (
	SourceCatalog      = "itunes"
	SourceEncyclopedia = "wikipedia"
	SourceCountry      = "musicbrainz"
)

type AlbumLookup interface {
	LookupAlbum(ctx context.Context, artist, album string) (Album, error)
}

type ArticleLookup interface {
	LookupArticle(ctx context.Context, artist, album string) (Article, error)
}

type CountryLookup interface {
	LookupCountry(ctx context.Context, artist string) (Country, error)
}

// Enrichment is everything known about one (artist, album) pair.
type Enrichment struct {
	Album   Result[Album]   `json:"album"`
	Article Result[Article] `json:"article"`
	Country Result[Country] `json:"country"`
}

type Config struct {
	Catalog      AlbumLookup
	Encyclopedia ArticleLookup
	// Country is optional.
	Country CountryLookup
	// Memo holds finished enrichments keyed by (artist, album). Nil
	// disables memoization.
	Memo    cache.Cache
	Timeout time.Duration
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Enricher runs the lookups for an entry and memoizes the outcome.
type Enricher struct {
	cfg Config
	log *zap.Logger
}

func NewEnricher(cfg Config) *Enricher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{cfg: cfg, log: log}
}

func memoKey(artist, album string) string {
	return "enrich:" + artist + "\x1f" + album
}

// Enrich never fails: lookups that error, time out or find nothing leave
// their documented defaults in place. Results, including fallbacks, are
// memoized so a pair hits the network once per memo lifetime. Outcomes
// cut short by the caller's own cancellation are not memoized.
func (e *Enricher) Enrich(ctx context.Context, artist, album string) Enrichment {
	key := memoKey(artist, album)
	if e.cfg.Memo != nil {
		var cached Enrichment
		ok, err := e.cfg.Memo.Get(ctx, key, &cached)
		if err != nil {
			e.log.Debug("enrich: memo read failed", zap.Error(err))
		} else if ok {
			return cached
		}
	}

	lctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	out := Enrichment{
		Album:   Result[Album]{Value: defaultAlbum(), Status: StatusFallback},
		Article: Result[Article]{Value: defaultArticle(), Status: StatusFallback},
		Country: Result[Country]{Status: StatusFallback},
	}

	// One slot per source, written by its goroutine only.
	var errs [3]error
	var wg sync.WaitGroup
	if e.cfg.Catalog != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			a, err := e.cfg.Catalog.LookupAlbum(lctx, artist, album)
			if err == nil && a.CoverURL == "" {
				a.CoverURL = DefaultCoverURL
			}
			errs[0] = err
			out.Album = resolve(a, defaultAlbum(), err)
			e.observe(SourceCatalog, out.Album.Status, start, err)
		}()
	}
	if e.cfg.Encyclopedia != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			a, err := e.cfg.Encyclopedia.LookupArticle(lctx, artist, album)
			errs[1] = err
			out.Article = resolve(a, defaultArticle(), err)
			e.observe(SourceEncyclopedia, out.Article.Status, start, err)
		}()
	}
	if e.cfg.Country != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			c, err := e.cfg.Country.LookupCountry(lctx, artist)
			errs[2] = err
			out.Country = resolve(c, Country{}, err)
			e.observe(SourceCountry, out.Country.Status, start, err)
		}()
	}
	wg.Wait()

	if callerGone(ctx, errs[:]) {
		e.log.Debug("enrich: request cancelled, result not memoized",
			zap.String("artist", artist), zap.String("album", album))
		return out
	}
	if e.cfg.Memo != nil {
		if err := e.cfg.Memo.Set(ctx, key, out); err != nil {
			e.log.Debug("enrich: memo write failed", zap.Error(err))
		}
	}
	return out
}

// callerGone reports whether ctx itself is done or a lookup was cancelled.
// The lookup timeout alone does not count.
func callerGone(ctx context.Context, errs []error) bool {
	if ctx.Err() != nil {
		return true
	}
	for _, err := range errs {
		if errors.Is(err, context.Canceled) {
			return true
		}
	}
	return false
}

func resolve[T any](v, def T, err error) Result[T] {
	if err != nil {
		return failed(def, err)
	}
	return success(v)
}

func (e *Enricher) observe(source string, status Status, start time.Time, err error) {
	e.cfg.Metrics.Lookup(source, string(status), time.Since(start))
	if errors.Is(err, context.DeadlineExceeded) {
		e.log.Debug("enrich: lookup timed out", zap.String("source", source),
			zap.Duration("timeout", e.cfg.Timeout), zap.Duration("took", time.Since(start)))
		return
	}
	if status == StatusError {
		e.log.Warn("enrich: lookup failed, using defaults", zap.String("source", source), zap.Error(err))
	}
}

func defaultAlbum() Album {
	return Album{CoverURL: DefaultCoverURL}
}

func defaultArticle() Article {
	return Article{Summary: DefaultSummary}
}
