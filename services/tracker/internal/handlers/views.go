package handlers

import (
	"net/http"
	"strconv"

	"github.com/example/music-odyssey/internal/platform/api"
	"github.com/example/music-odyssey/internal/platform/httpserver"
	"github.com/example/music-odyssey/services/tracker/internal/view"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func Calendar(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		t, _ := loadTable(w, r, d, rid)
		if t == nil {
			return
		}
		api.WriteJSON(w, http.StatusOK, view.Calendar(t, d.now()))
	}
}

func TierList(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		t, _ := loadTable(w, r, d, rid)
		if t == nil {
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"tiers": view.TierList(t)})
	}
}

// Search matches q against artist and album names.
func Search(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		q := r.URL.Query().Get("q")

		limit := defaultSearchLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				api.BadRequest(w, "INVALID_LIMIT", "limit must be a positive integer", rid, nil)
				return
			}
			limit = min(n, maxSearchLimit)
		}

		t, _ := loadTable(w, r, d, rid)
		if t == nil {
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"results": view.Search(t, q, limit)})
	}
}
