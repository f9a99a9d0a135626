package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/music-odyssey/internal/platform/events"
	"github.com/example/music-odyssey/internal/schedule"
)

// Next is the listening position derived from a table.
type Next struct {
	Current   *schedule.Entry `json:"current"`
	Upcoming  *schedule.Entry `json:"upcoming"`
	Remaining int             `json:"remaining"`
	// Done is set when every album has been listened to; Current and
	// Upcoming are then nil.
	Done bool `json:"done"`
}

// NextUnwatched returns the first two unlistened entries in date order.
func NextUnwatched(t *schedule.Table) Next {
	var n Next
	for _, e := range t.Entries() {
		if e.Watched {
			continue
		}
		n.Remaining++
		switch n.Remaining {
		case 1:
			cur := e
			n.Current = &cur
		case 2:
			up := e
			n.Upcoming = &up
		}
	}
	n.Done = n.Current == nil
	return n
}

// Submission is a rating form post. A nil Rating records DefaultRating.
// AlreadyKnown and CountryFlag only apply to SchemaV2 tables; nil or blank
// values leave the stored ones untouched.
type Submission struct {
	Rating       *int
	Review       string
	AlreadyKnown *bool
	CountryFlag  *string
}

// RecordSubmission marks the entry for date as listened, applies sub and
// saves the whole table.
func (s *Session) RecordSubmission(ctx context.Context, t *schedule.Table, date string, sub Submission) (schedule.Entry, error) {
	rating := DefaultRating
	if sub.Rating != nil {
		rating = *sub.Rating
	}
	if rating < 1 || rating > 5 {
		return schedule.Entry{}, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}

	e, ok := t.Get(date)
	if !ok {
		return schedule.Entry{}, fmt.Errorf("%w: %s", schedule.ErrEntryNotFound, date)
	}
	e.Watched = true
	e.Rating = rating
	e.Review = sub.Review
	if s.schema >= schedule.SchemaV2 {
		if sub.AlreadyKnown != nil {
			e.AlreadyKnown = *sub.AlreadyKnown
		}
		if sub.CountryFlag != nil && strings.TrimSpace(*sub.CountryFlag) != "" {
			e.CountryFlag = strings.TrimSpace(*sub.CountryFlag)
		}
	}
	t.Set(e)

	if err := s.Save(ctx, t); err != nil {
		return schedule.Entry{}, err
	}
	s.metrics.Submission()
	s.events.Publish(events.SubjectListenRecorded, "listen_recorded", map[string]any{
		"date":   e.Date,
		"artist": e.Artist,
		"album":  e.Album,
		"rating": e.Rating,
	})
	return e, nil
}
