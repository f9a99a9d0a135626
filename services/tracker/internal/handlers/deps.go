package handlers

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/music-odyssey/internal/platform/auth"
	"github.com/example/music-odyssey/internal/schedule"
	"github.com/example/music-odyssey/services/tracker/internal/enrich"
	"github.com/example/music-odyssey/services/tracker/internal/session"
)

// TableStore is the part of *session.Session the handlers use.
type TableStore interface {
	Load(ctx context.Context) (*schedule.Table, session.LoadReport, error)
	RecordSubmission(ctx context.Context, t *schedule.Table, date string, sub session.Submission) (schedule.Entry, error)
}

type Enricher interface {
	Enrich(ctx context.Context, artist, album string) enrich.Enrichment
}

// Deps carries everything the tracker routes need.
type Deps struct {
	Store    TableStore
	Enricher Enricher
	Log      *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time

	// Owner auth is enabled when Signer is set.
	Signer            *auth.JWTSigner
	Verifier          auth.JWTVerifier
	OwnerPasswordHash string
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) logger() *zap.Logger {
	if d.Log != nil {
		return d.Log
	}
	return zap.NewNop()
}

// Register mounts the /v1 routes. Mutating routes require an owner token
// when auth is enabled.
func Register(r chi.Router, d Deps) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/dashboard", Dashboard(d))
		r.Get("/calendar", Calendar(d))
		r.Get("/tierlist", TierList(d))
		r.Get("/search", Search(d))
		r.Get("/entries/{date}", GetEntry(d))

		r.Group(func(r chi.Router) {
			if d.Signer != nil {
				r.Use(auth.RequireOwner(d.Verifier))
			}
			r.Post("/entries/{date}/listen", RecordListen(d))
		})

		if d.Signer != nil {
			r.Post("/session", Login(d))
		}
	})
}
