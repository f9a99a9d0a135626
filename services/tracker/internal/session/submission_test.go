package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/music-odyssey/internal/platform/events"
	"github.com/example/music-odyssey/internal/schedule"
	"github.com/example/music-odyssey/services/tracker/internal/remote"
)

func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestNextUnwatched(t *testing.T) {
	table := makeTable(4)
	e, _ := table.Get("2026-01-01")
	e.Watched = true
	table.Set(e)

	n := NextUnwatched(table)
	require.NotNil(t, n.Current)
	require.NotNil(t, n.Upcoming)
	assert.Equal(t, "2026-01-02", n.Current.Date)
	assert.Equal(t, "2026-01-03", n.Upcoming.Date)
	assert.Equal(t, 3, n.Remaining)
	assert.False(t, n.Done)
}

func TestNextUnwatched_LastAlbum(t *testing.T) {
	table := makeTable(2)
	e, _ := table.Get("2026-01-01")
	e.Watched = true
	table.Set(e)

	n := NextUnwatched(table)
	require.NotNil(t, n.Current)
	assert.Nil(t, n.Upcoming)
	assert.False(t, n.Done)
}

func TestNextUnwatched_AllDone(t *testing.T) {
	table := makeTable(3)
	for _, e := range table.Entries() {
		e.Watched = true
		table.Set(e)
	}

	n := NextUnwatched(table)
	assert.True(t, n.Done)
	assert.Nil(t, n.Current)
	assert.Nil(t, n.Upcoming)
	assert.Zero(t, n.Remaining)

	assert.True(t, NextUnwatched(schedule.NewTable(nil)).Done)
}

func TestRecordSubmission_DefaultThenExplicitRating(t *testing.T) {
	ctx := context.Background()
	store := remote.NewMemoryStore()
	conn := &recordingConn{}
	s := newSession(store, "", func(o *Options) { o.Events = events.New(conn, nil) })
	table := makeTable(3)

	e, err := s.RecordSubmission(ctx, table, "2026-01-01", Submission{Review: "Great"})
	require.NoError(t, err)
	assert.True(t, e.Watched)
	assert.Equal(t, DefaultRating, e.Rating)
	assert.Equal(t, "Great", e.Review)

	e, err = s.RecordSubmission(ctx, table, "2026-01-01", Submission{Rating: intPtr(5), Review: "Great"})
	require.NoError(t, err)
	assert.Equal(t, 5, e.Rating)

	rows, err := store.Read(ctx, worksheet)
	require.NoError(t, err)
	persisted := schedule.Normalize(rows, schedule.SchemaV2)
	got, _ := persisted.Get("2026-01-01")
	assert.Equal(t, 5, got.Rating)
	assert.True(t, got.Watched)
	assert.Equal(t, 3, persisted.Len(), "the whole table is written")

	assert.Contains(t, conn.subjects, events.SubjectListenRecorded)
	assert.Contains(t, conn.subjects, events.SubjectTableSaved)
}

func TestRecordSubmission_SchemaExtras(t *testing.T) {
	ctx := context.Background()
	table := makeTable(2)

	v2 := newSession(remote.NewMemoryStore(), "")
	e, err := v2.RecordSubmission(ctx, table, "2026-01-02", Submission{
		Rating: intPtr(4), AlreadyKnown: boolPtr(true), CountryFlag: strPtr(" 🇳🇬 "),
	})
	require.NoError(t, err)
	assert.True(t, e.AlreadyKnown)
	assert.Equal(t, "🇳🇬", e.CountryFlag)

	e, err = v2.RecordSubmission(ctx, table, "2026-01-02", Submission{Rating: intPtr(4), CountryFlag: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "🇳🇬", e.CountryFlag, "blank flag keeps the stored one")
	assert.True(t, e.AlreadyKnown)

	v1 := newSession(remote.NewMemoryStore(), "", func(o *Options) { o.Schema = schedule.SchemaV1 })
	e, err = v1.RecordSubmission(ctx, makeTable(2), "2026-01-02", Submission{AlreadyKnown: boolPtr(true), CountryFlag: strPtr("🇫🇷")})
	require.NoError(t, err)
	assert.False(t, e.AlreadyKnown)
	assert.Empty(t, e.CountryFlag)
}

func TestRecordSubmission_Errors(t *testing.T) {
	ctx := context.Background()
	s := newSession(remote.NewMemoryStore(), "")
	table := makeTable(2)

	for _, r := range []int{0, 6, -1} {
		_, err := s.RecordSubmission(ctx, table, "2026-01-01", Submission{Rating: intPtr(r)})
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", r)
	}
	e, _ := table.Get("2026-01-01")
	assert.False(t, e.Watched, "rejected submissions do not touch the table")

	_, err := s.RecordSubmission(ctx, table, "2030-01-01", Submission{})
	assert.ErrorIs(t, err, schedule.ErrEntryNotFound)

	failing := newSession(&flakyStore{MemoryStore: remote.NewMemoryStore(), writeErr: errors.New("offline")}, "")
	_, err = failing.RecordSubmission(ctx, makeTable(2), "2026-01-01", Submission{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
