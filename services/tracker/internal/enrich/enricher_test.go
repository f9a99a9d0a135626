package enrich

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/music-odyssey/services/tracker/internal/cache"
	"github.com/example/music-odyssey/services/tracker/internal/metrics"
)

type fakeCatalog struct {
	calls atomic.Int32
	album Album
	err   error
	delay time.Duration
}

func (f *fakeCatalog) LookupAlbum(ctx context.Context, _, _ string) (Album, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Album{}, ctx.Err()
		}
	}
	return f.album, f.err
}

type fakeEncyclopedia struct {
	calls   atomic.Int32
	article Article
	err     error
}

func (f *fakeEncyclopedia) LookupArticle(context.Context, string, string) (Article, error) {
	f.calls.Add(1)
	return f.article, f.err
}

type fakeCountry struct {
	country Country
	err     error
}

func (f *fakeCountry) LookupCountry(context.Context, string) (Country, error) {
	return f.country, f.err
}

func TestEnrich_Success(t *testing.T) {
	url := "https://fr.wikipedia.org/wiki/Illmatic"
	e := NewEnricher(Config{
		Catalog:      &fakeCatalog{album: Album{CoverURL: "https://img/600x600.jpg", Year: "1994", Copyright: "Columbia"}},
		Encyclopedia: &fakeEncyclopedia{article: Article{Summary: "Premier album de Nas.", URL: &url}},
		Country:      &fakeCountry{country: Country{Code: "US", Flag: "🇺🇸"}},
		Metrics:      metrics.New(),
	})

	got := e.Enrich(context.Background(), "Nas", "Illmatic")
	assert.Equal(t, StatusSuccess, got.Album.Status)
	assert.Equal(t, "1994", got.Album.Value.Year)
	assert.Equal(t, StatusSuccess, got.Article.Status)
	assert.Equal(t, &url, got.Article.Value.URL)
	assert.Equal(t, "🇺🇸", got.Country.Value.Flag)
}

func TestEnrich_FallbacksAndErrors(t *testing.T) {
	e := NewEnricher(Config{
		Catalog:      &fakeCatalog{err: errors.New("dial tcp: i/o timeout")},
		Encyclopedia: &fakeEncyclopedia{err: ErrNoMatch},
	})

	got := e.Enrich(context.Background(), "Unknown", "Demo")
	assert.Equal(t, StatusError, got.Album.Status)
	assert.Contains(t, got.Album.Err, "timeout")
	assert.Equal(t, DefaultCoverURL, got.Album.Value.CoverURL)
	assert.Empty(t, got.Album.Value.Year)
	assert.Empty(t, got.Album.Value.Copyright)

	assert.Equal(t, StatusFallback, got.Article.Status)
	assert.Equal(t, DefaultSummary, got.Article.Value.Summary)
	assert.Nil(t, got.Article.Value.URL)

	assert.Equal(t, StatusFallback, got.Country.Status, "no country lookup configured")
}

func TestEnrich_TimeoutUsesDefaults(t *testing.T) {
	e := NewEnricher(Config{
		Catalog:      &fakeCatalog{delay: time.Second},
		Encyclopedia: &fakeEncyclopedia{article: Article{Summary: "ok"}},
		Timeout:      20 * time.Millisecond,
	})

	start := time.Now()
	got := e.Enrich(context.Background(), "Slow", "Album")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, StatusError, got.Album.Status)
	assert.Equal(t, DefaultCoverURL, got.Album.Value.CoverURL)
	assert.Equal(t, StatusSuccess, got.Article.Status)
}

func TestEnrich_MemoizesPerPair(t *testing.T) {
	cat := &fakeCatalog{album: Album{CoverURL: "c", Year: "2020"}}
	enc := &fakeEncyclopedia{err: errors.New("down")}
	e := NewEnricher(Config{Catalog: cat, Encyclopedia: enc, Memo: cache.NewMemoryCache(0)})
	ctx := context.Background()

	first := e.Enrich(ctx, "A", "B")
	second := e.Enrich(ctx, "A", "B")
	require.Equal(t, first, second)
	assert.Equal(t, int32(1), cat.calls.Load())
	assert.Equal(t, int32(1), enc.calls.Load(), "failures are memoized too")

	e.Enrich(ctx, "A", "C")
	e.Enrich(ctx, "AB", "")
	assert.Equal(t, int32(3), cat.calls.Load())
}

func TestEnrich_CancelledCallerIsNotMemoized(t *testing.T) {
	cat := &fakeCatalog{album: Album{CoverURL: "c", Year: "2020"}, delay: 30 * time.Millisecond}
	e := NewEnricher(Config{Catalog: cat, Memo: cache.NewMemoryCache(0), Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	first := e.Enrich(ctx, "A", "B")
	assert.Equal(t, StatusError, first.Album.Status)

	second := e.Enrich(context.Background(), "A", "B")
	assert.Equal(t, StatusSuccess, second.Album.Status)
	assert.Equal(t, "c", second.Album.Value.CoverURL)
	assert.Equal(t, int32(2), cat.calls.Load())

	third := e.Enrich(context.Background(), "A", "B")
	assert.Equal(t, second, third)
	assert.Equal(t, int32(2), cat.calls.Load())
}

func TestEnrich_LookupTimeoutIsMemoizedAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cat := &fakeCatalog{delay: time.Second}
	e := NewEnricher(Config{
		Catalog: cat,
		Memo:    cache.NewMemoryCache(0),
		Timeout: 20 * time.Millisecond,
		Logger:  zap.New(core),
	})

	first := e.Enrich(context.Background(), "Slow", "Album")
	second := e.Enrich(context.Background(), "Slow", "Album")
	assert.Equal(t, StatusError, first.Album.Status)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), cat.calls.Load())

	timedOut := logs.FilterMessage("enrich: lookup timed out").All()
	require.Len(t, timedOut, 1)
	assert.Equal(t, zapcore.DebugLevel, timedOut[0].Level)
	assert.Equal(t, SourceCatalog, timedOut[0].ContextMap()["source"])
}

func TestEnrich_EmptyCoverUsesDefault(t *testing.T) {
	e := NewEnricher(Config{Catalog: &fakeCatalog{album: Album{Year: "1999"}}})
	got := e.Enrich(context.Background(), "A", "B")
	assert.Equal(t, StatusSuccess, got.Album.Status)
	assert.Equal(t, DefaultCoverURL, got.Album.Value.CoverURL)
}
