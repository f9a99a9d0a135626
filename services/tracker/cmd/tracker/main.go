package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/music-odyssey/internal/platform/auth"
	"github.com/example/music-odyssey/internal/platform/config"
	"github.com/example/music-odyssey/internal/platform/events"
	"github.com/example/music-odyssey/internal/platform/httpserver"
	"github.com/example/music-odyssey/internal/platform/logging"
	"github.com/example/music-odyssey/internal/platform/natsconn"
	"github.com/example/music-odyssey/internal/platform/ratelimit"
	"github.com/example/music-odyssey/internal/platform/run"
	"github.com/example/music-odyssey/services/tracker/internal/cache"
	trackercfg "github.com/example/music-odyssey/services/tracker/internal/config"
	"github.com/example/music-odyssey/services/tracker/internal/enrich"
	"github.com/example/music-odyssey/services/tracker/internal/handlers"
	"github.com/example/music-odyssey/services/tracker/internal/metrics"
	"github.com/example/music-odyssey/services/tracker/internal/remote"
	"github.com/example/music-odyssey/services/tracker/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	tcfg, err := trackercfg.Load()
	if err != nil {
		log.Error("load tracker config", zap.Error(err))
		run.Exit(1)
	}

	bootCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, closeStore, err := remote.New(bootCtx, remote.Config{
		Backend:     tcfg.StoreBackend,
		DatabaseURL: tcfg.DatabaseURL,
		RedisURL:    tcfg.RedisURL,
		SQLitePath:  tcfg.SQLitePath,
		Production:  cfg.IsProduction(),
	}, log)
	cancel()
	if err != nil {
		log.Error("open remote store", zap.Error(err))
		run.Exit(1)
	}
	defer closeStore()

	var nc *nats.Conn
	if tcfg.NATSURL != "" {
		nc, err = natsconn.Connect(natsconn.Options{URL: tcfg.NATSURL, Name: cfg.ServiceName, Logger: log})
		if err != nil {
			log.Warn("nats unavailable, events and cache broadcast disabled", zap.Error(err))
			nc = nil
		} else {
			defer nc.Close()
		}
	}
	var publisher *events.Publisher
	if nc != nil {
		publisher = events.New(nc, log)
	}

	tableCache, enrichMemo, closeCaches := buildCaches(tcfg, nc, log)
	defer closeCaches()

	m := metrics.New()

	breaker := enrich.BreakerSettings{
		MaxRequests:      tcfg.CBMaxRequests,
		Interval:         tcfg.CBInterval,
		Timeout:          tcfg.CBTimeout,
		FailureThreshold: tcfg.CBFailureThreshold,
	}
	mbLimiter := ratelimit.NewRPS(1)
	defer mbLimiter.Stop()

	enricher := enrich.NewEnricher(enrich.Config{
		Catalog: enrich.NewITunesClient(tcfg.ITunesBaseURL,
			enrich.WithCircuitBreaker(enrich.NewBreaker(enrich.SourceCatalog, breaker, log)),
			enrich.WithLogger(log)),
		Encyclopedia: enrich.NewWikipediaClient(tcfg.WikiLang, tcfg.WikiBaseURL,
			enrich.WithCircuitBreaker(enrich.NewBreaker(enrich.SourceEncyclopedia, breaker, log)),
			enrich.WithLogger(log)),
		Country: enrich.NewMusicBrainzClient(tcfg.MusicBrainzBaseURL, tcfg.MusicBrainzContact, mbLimiter,
			enrich.WithCircuitBreaker(enrich.NewBreaker(enrich.SourceCountry, breaker, log)),
			enrich.WithLogger(log)),
		Memo:    enrichMemo,
		Timeout: tcfg.LookupTimeout,
		Metrics: m,
		Logger:  log,
	})

	sess := session.New(store, session.Options{
		SeedPath:  tcfg.SeedPath,
		Worksheet: tcfg.Worksheet,
		MinRows:   tcfg.MinRows,
		Schema:    tcfg.SchemaVersion,
		Cache:     tableCache,
		Events:    publisher,
		Metrics:   m,
		Logger:    log,
	})

	deps := handlers.Deps{Store: sess, Enricher: enricher, Log: log}
	if tcfg.AuthEnabled() {
		deps.Signer = &auth.JWTSigner{Secret: tcfg.JWTSecret, TTL: tcfg.TokenTTL}
		deps.Verifier = auth.JWTVerifier{Secret: tcfg.JWTSecret}
		deps.OwnerPasswordHash = tcfg.OwnerPasswordHash
	} else {
		log.Warn("owner auth disabled; JWT_SECRET and OWNER_PASSWORD_HASH are unset")
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(ctx)
		},
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("music-odyssey tracker"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())
	handlers.Register(r, deps)

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Router: r})

	log.Info("tracker configured",
		zap.String("store", tcfg.StoreBackend),
		zap.String("seed", tcfg.SeedPath),
		zap.Int("schema", int(tcfg.SchemaVersion)),
		zap.Bool("auth", tcfg.AuthEnabled()),
		zap.Bool("nats", nc != nil),
	)

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// buildCaches returns the table cache and the enrichment memo. Redis is
// shared across instances; the in-process caches listen on NATS for
// invalidations when a connection is available.
func buildCaches(tcfg trackercfg.Config, nc *nats.Conn, log *zap.Logger) (cache.Cache, cache.Cache, func()) {
	if tcfg.RedisURL != "" {
		tables, err := cache.NewRedisCache(tcfg.RedisURL, "music-odyssey:cache:", tcfg.TableCacheTTL)
		if err == nil {
			memo, merr := cache.NewRedisCache(tcfg.RedisURL, "music-odyssey:enrich:", tcfg.EnrichCacheTTL)
			if merr == nil {
				return tables, memo, func() {
					_ = tables.Close()
					_ = memo.Close()
				}
			}
			_ = tables.Close()
			err = merr
		}
		log.Warn("redis cache unavailable, using memory", zap.Error(err))
	}

	tableOpts := []cache.Option{cache.WithLogger(log)}
	if nc != nil {
		tableOpts = append(tableOpts, cache.WithBroadcast(nc, tcfg.CacheInvalidationSubject))
	}
	tables := cache.NewMemoryCache(tcfg.TableCacheTTL, tableOpts...)
	memo := cache.NewMemoryCache(tcfg.EnrichCacheTTL, cache.WithLogger(log))

	var sub *nats.Subscription
	if nc != nil {
		var err error
		sub, err = tables.Subscribe(nc, tcfg.CacheInvalidationSubject)
		if err != nil {
			log.Warn("subscribe cache invalidation", zap.Error(err))
		}
	}
	return tables, memo, func() {
		if sub != nil {
			_ = sub.Unsubscribe()
		}
	}
}
