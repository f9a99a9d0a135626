package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/music-odyssey/internal/platform/api"
	"github.com/example/music-odyssey/internal/platform/httpserver"
	"github.com/example/music-odyssey/internal/schedule"
	"github.com/example/music-odyssey/services/tracker/internal/enrich"
	"github.com/example/music-odyssey/services/tracker/internal/session"
	"github.com/example/music-odyssey/services/tracker/internal/view"
)

// EntryView is an entry decorated for display.
type EntryView struct {
	Entry      schedule.Entry     `json:"entry"`
	Badge      view.TagBadge      `json:"badge"`
	Timing     view.Timing        `json:"timing"`
	Enrichment *enrich.Enrichment `json:"enrichment,omitempty"`
}

type DashboardResponse struct {
	Stats     view.Stats         `json:"stats"`
	Current   *EntryView         `json:"current"`
	Upcoming  *EntryView         `json:"upcoming"`
	Remaining int                `json:"remaining"`
	Done      bool               `json:"done"`
	Load      session.LoadReport `json:"load"`
}

type listenRequest struct {
	Rating       *int    `json:"rating"`
	Review       string  `json:"review"`
	AlreadyKnown *bool   `json:"already_known"`
	CountryFlag  *string `json:"country_flag"`
}

// loadTable loads the table or writes a 503 and returns nil.
func loadTable(w http.ResponseWriter, r *http.Request, d Deps, rid string) (*schedule.Table, session.LoadReport) {
	t, rep, err := d.Store.Load(r.Context())
	if err != nil {
		d.logger().Warn("table unavailable", zap.Error(err), zap.String("request_id", rid))
		api.Unavailable(w, "STORE_UNAVAILABLE", "Schedule is unavailable", rid, map[string]any{"diagnostics": rep.Diagnostics})
		return nil, rep
	}
	return t, rep
}

func startOf(t *schedule.Table) time.Time {
	dates := t.Dates()
	if len(dates) == 0 {
		return time.Time{}
	}
	start, _ := time.Parse(schedule.DateLayout, dates[0])
	return start
}

func decorate(ctx context.Context, d Deps, e schedule.Entry, start, today time.Time) EntryView {
	v := EntryView{
		Entry:  e,
		Badge:  view.Badge(e.Tag),
		Timing: view.Schedule(e, start, today),
	}
	if d.Enricher != nil {
		en := d.Enricher.Enrich(ctx, e.Artist, e.Album)
		v.Enrichment = &en
	}
	return v
}

// Dashboard returns progress and the next two albums to listen to.
func Dashboard(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		t, rep := loadTable(w, r, d, rid)
		if t == nil {
			return
		}
		next := session.NextUnwatched(t)
		start, today := startOf(t), d.now()

		resp := DashboardResponse{
			Stats:     view.ComputeStats(t),
			Remaining: next.Remaining,
			Done:      next.Done,
			Load:      rep,
		}

		var wg sync.WaitGroup
		if next.Current != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v := decorate(r.Context(), d, *next.Current, start, today)
				resp.Current = &v
			}()
		}
		if next.Upcoming != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v := decorate(r.Context(), d, *next.Upcoming, start, today)
				resp.Upcoming = &v
			}()
		}
		wg.Wait()

		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// GetEntry returns one decorated entry by date.
func GetEntry(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		date, ok := dateParam(w, r, rid)
		if !ok {
			return
		}
		t, _ := loadTable(w, r, d, rid)
		if t == nil {
			return
		}
		e, ok := t.Get(date)
		if !ok {
			api.NotFound(w, "ENTRY_NOT_FOUND", "No album scheduled for this date", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, decorate(r.Context(), d, e, startOf(t), d.now()))
	}
}

// RecordListen marks the album for a date as listened and saves the rating.
func RecordListen(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		date, ok := dateParam(w, r, rid)
		if !ok {
			return
		}
		var req listenRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		t, _ := loadTable(w, r, d, rid)
		if t == nil {
			return
		}

		e, err := d.Store.RecordSubmission(r.Context(), t, date, session.Submission{
			Rating:       req.Rating,
			Review:       req.Review,
			AlreadyKnown: req.AlreadyKnown,
			CountryFlag:  req.CountryFlag,
		})
		switch {
		case err == nil:
		case errors.Is(err, session.ErrInvalidRating):
			api.BadRequest(w, "INVALID_RATING", "Rating must be between 1 and 5", rid, nil)
			return
		case errors.Is(err, schedule.ErrEntryNotFound):
			api.NotFound(w, "ENTRY_NOT_FOUND", "No album scheduled for this date", rid)
			return
		case errors.Is(err, session.ErrUnavailable):
			d.logger().Error("save listen", zap.Error(err), zap.String("date", date), zap.String("request_id", rid))
			api.Unavailable(w, "STORE_UNAVAILABLE", "Rating could not be saved", rid, map[string]any{"error": err.Error()})
			return
		default:
			d.logger().Error("record listen", zap.Error(err), zap.String("request_id", rid))
			api.Internal(w, rid)
			return
		}

		d.logger().Info("listen recorded", zap.String("date", date), zap.Int("rating", e.Rating))
		api.WriteJSON(w, http.StatusOK, map[string]any{"entry": e})
	}
}

func dateParam(w http.ResponseWriter, r *http.Request, rid string) (string, bool) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(schedule.DateLayout, date); err != nil {
		api.BadRequest(w, "INVALID_DATE", "Date must be YYYY-MM-DD", rid, map[string]any{"date": date})
		return "", false
	}
	return date, true
}
