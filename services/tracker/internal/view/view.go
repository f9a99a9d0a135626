// Package view derives the read models shown by the dashboard: progress
// stats, the calendar, the tier list, sidebar search and tag badges.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/example/music-odyssey/internal/schedule"
)

type Stats struct {
	Total     int     `json:"total"`
	Watched   int     `json:"watched"`
	Remaining int     `json:"remaining"`
	Progress  float64 `json:"progress"`
	// AverageRating is nil until something has been listened to.
	AverageRating *float64 `json:"average_rating"`
}

func ComputeStats(t *schedule.Table) Stats {
	var s Stats
	sum := 0
	for _, e := range t.Entries() {
		s.Total++
		if e.Watched {
			s.Watched++
			sum += e.Rating
		}
	}
	s.Remaining = s.Total - s.Watched
	if s.Total > 0 {
		s.Progress = float64(s.Watched) / float64(s.Total)
	}
	if s.Watched > 0 {
		avg := float64(sum) / float64(s.Watched)
		s.AverageRating = &avg
	}
	return s
}

// Calendar statuses and their colors.
const (
	StatusWatched  = "watched"
	StatusOverdue  = "overdue"
	StatusUpcoming = "upcoming"

	ColorWatched  = "#28a745"
	ColorOverdue  = "#dc3545"
	ColorUpcoming = "#6c757d"
)

type CalendarEvent struct {
	Title           string `json:"title"`
	Start           string `json:"start"`
	AllDay          bool   `json:"allDay"`
	BackgroundColor string `json:"backgroundColor"`
	BorderColor     string `json:"borderColor"`
	Status          string `json:"status"`
	Album           string `json:"album"`
}

type CalendarView struct {
	InitialDate string          `json:"initial_date"`
	Events      []CalendarEvent `json:"events"`
}

// Calendar returns one all-day event per scheduled date. Unlistened dates
// before today are overdue.
func Calendar(t *schedule.Table, today time.Time) CalendarView {
	todayKey := today.Format(schedule.DateLayout)
	entries := t.Entries()
	v := CalendarView{Events: make([]CalendarEvent, 0, len(entries))}
	if len(entries) > 0 {
		v.InitialDate = entries[0].Date
	}
	for _, e := range entries {
		status, color, prefix := StatusUpcoming, ColorUpcoming, "🎵"
		switch {
		case e.Watched:
			status, color, prefix = StatusWatched, ColorWatched, "✅"
		case e.Date < todayKey:
			status, color, prefix = StatusOverdue, ColorOverdue, "⚠️"
		}
		v.Events = append(v.Events, CalendarEvent{
			Title:           prefix + " " + e.Artist,
			Start:           e.Date,
			AllDay:          true,
			BackgroundColor: color,
			BorderColor:     color,
			Status:          status,
			Album:           e.Album,
		})
	}
	return v
}

type Tier struct {
	Rating  int              `json:"rating"`
	Label   string           `json:"label"`
	Entries []schedule.Entry `json:"entries"`
}

// TierList groups listened albums by rating, best first. All five tiers
// are present even when empty.
func TierList(t *schedule.Table) []Tier {
	tiers := make([]Tier, 5)
	for i := range tiers {
		r := 5 - i
		tiers[i] = Tier{Rating: r, Label: strings.Repeat("★", r), Entries: []schedule.Entry{}}
	}
	for _, e := range t.Entries() {
		if !e.Watched || e.Rating < 1 || e.Rating > 5 {
			continue
		}
		i := 5 - e.Rating
		tiers[i].Entries = append(tiers[i].Entries, e)
	}
	return tiers
}

// Search matches q against artist and album names, ignoring case. At most
// limit entries are returned; limit <= 0 means no limit.
func Search(t *schedule.Table, q string, limit int) []schedule.Entry {
	q = strings.ToLower(strings.TrimSpace(q))
	out := []schedule.Entry{}
	if q == "" {
		return out
	}
	for _, e := range t.Entries() {
		if strings.Contains(strings.ToLower(e.Artist), q) || strings.Contains(strings.ToLower(e.Album), q) {
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

// Badge kinds.
const (
	BadgeChallenge = "challenge"
	BadgeAfro      = "afro"
	BadgeDefault   = "default"
)

type TagBadge struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

func Badge(tag string) TagBadge {
	lower := strings.ToLower(tag)
	switch {
	case lower == "full discography" || lower == "integrale" || lower == "intégrale":
		return TagBadge{Kind: BadgeChallenge, Label: "🔥 Full Discography Challenge"}
	case strings.Contains(lower, "afro"):
		return TagBadge{Kind: BadgeAfro, Label: "🌍 Afro Vibe"}
	default:
		return TagBadge{Kind: BadgeDefault, Label: "🎧 " + tag}
	}
}

// Timing places an entry in the program relative to today.
type Timing struct {
	Day      int    `json:"day"`
	DayLabel string `json:"day_label"`
	Relative string `json:"relative"`
	Overdue  bool   `json:"overdue"`
}

// Schedule describes when e is due. start is the first date of the
// program.
func Schedule(e schedule.Entry, start, today time.Time) Timing {
	day := e.Day()
	if day.IsZero() {
		return Timing{}
	}
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	n := int(day.Sub(start).Hours()/24) + 1

	tm := Timing{
		Day:      n,
		DayLabel: fmt.Sprintf("%s day", humanize.Ordinal(n)),
		Overdue:  !e.Watched && day.Before(today),
	}
	switch {
	case day.Equal(today):
		tm.Relative = "today"
	default:
		tm.Relative = humanize.RelTime(day, today, "ago", "from now")
	}
	return tm
}
