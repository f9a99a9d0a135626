package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/music-odyssey/internal/platform/events"
	"github.com/example/music-odyssey/internal/schedule"
	"github.com/example/music-odyssey/services/tracker/internal/cache"
	"github.com/example/music-odyssey/services/tracker/internal/remote"
)

const worksheet = "Database"

// flakyStore wraps a MemoryStore and fails reads or writes on demand.
type flakyStore struct {
	*remote.MemoryStore
	readErr  error
	writeErr error
	writes   int
}

func (f *flakyStore) Read(ctx context.Context, ws string) ([]schedule.Record, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.MemoryStore.Read(ctx, ws)
}

func (f *flakyStore) Update(ctx context.Context, ws string, rows []schedule.Record) error {
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.MemoryStore.Update(ctx, ws, rows)
}

type recordingConn struct {
	mu       sync.Mutex
	subjects []string
}

func (c *recordingConn) Publish(subj string, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subjects = append(c.subjects, subj)
	return nil
}

func makeTable(n int) *schedule.Table {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := make([]schedule.Entry, n)
	for i := range entries {
		entries[i] = schedule.Entry{
			Date:   start.AddDate(0, 0, i).Format(schedule.DateLayout),
			Artist: fmt.Sprintf("Artist %d", i),
			Album:  fmt.Sprintf("Album %d", i),
			Genre:  "Rock",
			Tag:    "Discovery",
		}
	}
	return schedule.NewTable(entries)
}

func writeSeed(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, schedule.WriteSeedFile(path, makeTable(n), schedule.SchemaV1))
	return path
}

func newSession(store remote.Store, seedPath string, opts ...func(*Options)) *Session {
	o := Options{SeedPath: seedPath, Worksheet: worksheet, MinRows: 10, Schema: schedule.SchemaV2, Logger: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	return New(store, o)
}

func TestLoad_PrefersRemote(t *testing.T) {
	ctx := context.Background()
	store := remote.NewMemoryStore()
	require.NoError(t, store.Update(ctx, worksheet, makeTable(12).Records(schedule.SchemaV2)))

	table, report, err := newSession(store, writeSeed(t, 365)).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, report.Source)
	assert.Empty(t, report.Diagnostics)
	assert.Equal(t, 12, table.Len())
}

func TestLoad_FallsBackWhenRemoteTooShort(t *testing.T) {
	ctx := context.Background()
	store := remote.NewMemoryStore()
	require.NoError(t, store.Update(ctx, worksheet, makeTable(5).Records(schedule.SchemaV2)))
	conn := &recordingConn{}

	s := newSession(store, writeSeed(t, 365), func(o *Options) { o.Events = events.New(conn, nil) })
	table, report, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceSeed, report.Source)
	require.Len(t, report.Diagnostics, 1)
	assert.Contains(t, report.Diagnostics[0], "5 usable rows")
	assert.Equal(t, 365, table.Len())

	pushed, err := store.Read(ctx, worksheet)
	require.NoError(t, err)
	assert.Len(t, pushed, 365, "seed table is pushed back before returning")
	assert.Equal(t, schedule.DefaultCountryFlag, pushed[0][schedule.ColCountryFlag], "missing columns are backfilled")
	assert.Equal(t, []string{events.SubjectTableBootstrapped}, conn.subjects)

	_, report, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, report.Source)
}

func TestLoad_FallsBackWhenRemoteRowsHaveNoDate(t *testing.T) {
	ctx := context.Background()
	store := remote.NewMemoryStore()
	rows := makeTable(20).Records(schedule.SchemaV2)
	for _, r := range rows {
		r["Date"] = r[schedule.ColDate]
		delete(r, schedule.ColDate)
	}
	require.NoError(t, store.Update(ctx, worksheet, rows))

	table, report, err := newSession(store, writeSeed(t, 365)).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceSeed, report.Source)
	require.Len(t, report.Diagnostics, 1)
	assert.Contains(t, report.Diagnostics[0], "0 usable rows of 20")
	assert.Equal(t, 365, table.Len())
	assert.False(t, NextUnwatched(table).Done)
}

func TestLoad_FallsBackWhenRemoteEmptyOrFailing(t *testing.T) {
	ctx := context.Background()

	empty := &flakyStore{MemoryStore: remote.NewMemoryStore()}
	_, report, err := newSession(empty, writeSeed(t, 20)).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceSeed, report.Source)
	assert.Equal(t, 1, empty.writes)

	failing := &flakyStore{MemoryStore: remote.NewMemoryStore(), readErr: errors.New("quota exceeded"), writeErr: errors.New("quota exceeded")}
	table, report, err := newSession(failing, writeSeed(t, 20)).Load(ctx)
	require.NoError(t, err, "a failed push is reported, not fatal")
	assert.Equal(t, SourceSeed, report.Source)
	assert.Equal(t, 20, table.Len())
	require.Len(t, report.Diagnostics, 2)
	assert.Contains(t, report.Diagnostics[0], "quota exceeded")
	assert.Contains(t, report.Diagnostics[1], "push")
}

func TestLoad_BothSourcesFail(t *testing.T) {
	store := &flakyStore{MemoryStore: remote.NewMemoryStore(), readErr: errors.New("connection refused")}
	s := newSession(store, filepath.Join(t.TempDir(), "missing.json"))

	table, report, err := s.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, SourceNone, report.Source)
	assert.Len(t, report.Diagnostics, 2)
	assert.Zero(t, store.writes)
}

func TestLoad_UsesAndInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := remote.NewMemoryStore()
	require.NoError(t, store.Update(ctx, worksheet, makeTable(12).Records(schedule.SchemaV2)))
	c := cache.NewMemoryCache(time.Minute)
	s := newSession(store, "", func(o *Options) { o.Cache = c })

	table, report, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, report.Source)

	cached, report, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, report.Source)
	assert.Equal(t, table.Entries(), cached.Entries())

	_, err = s.RecordSubmission(ctx, cached, "2026-01-01", Submission{Review: "ok"})
	require.NoError(t, err)

	reloaded, report, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, report.Source, "save drops the cached table")
	e, _ := reloaded.Get("2026-01-01")
	assert.True(t, e.Watched)
}

func TestSaveLoad_RoundTripLeavesRemoteUnchanged(t *testing.T) {
	ctx := context.Background()
	store := remote.NewMemoryStore()
	before := makeTable(15).Records(schedule.SchemaV2)
	require.NoError(t, store.Update(ctx, worksheet, before))
	s := newSession(store, "")

	table, _, err := s.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, table))

	after, err := store.Read(ctx, worksheet)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSave_Failure(t *testing.T) {
	store := &flakyStore{MemoryStore: remote.NewMemoryStore(), writeErr: errors.New("read-only")}
	err := newSession(store, "").Save(context.Background(), makeTable(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "read-only")
}
