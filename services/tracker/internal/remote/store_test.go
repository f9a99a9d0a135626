package remote

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/music-odyssey/internal/schedule"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*RedisStore)(nil)
)

func sampleRows() []schedule.Record {
	return schedule.NewTable([]schedule.Entry{
		{Date: "2026-01-01", Artist: "Daft Punk", Album: "Discovery", Genre: "Electro", Tag: "Legend"},
		{Date: "2026-01-02", Artist: "Burna Boy", Album: "African Giant", Genre: "Afrobeats", Tag: "Afro Vibe", Watched: true, Rating: 4, Review: "énorme"},
	}).Records(schedule.SchemaV2)
}

func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	rows, err := s.Read(ctx, "Database")
	require.NoError(t, err)
	assert.Empty(t, rows, "unknown worksheet reads empty")

	require.NoError(t, s.Update(ctx, "Database", sampleRows()))
	require.NoError(t, s.Update(ctx, "Other", sampleRows()[:1]))

	rows, err = s.Read(ctx, "Database")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-01-01", rows[0][schedule.ColDate])

	// Stored rows survive normalization unchanged.
	want := schedule.Normalize(sampleRows(), schedule.SchemaV2)
	got := schedule.Normalize(rows, schedule.SchemaV2)
	assert.Equal(t, want.Entries(), got.Entries())

	// Update overwrites the whole worksheet.
	require.NoError(t, s.Update(ctx, "Database", sampleRows()[1:]))
	rows, err = s.Read(ctx, "Database")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Burna Boy", rows[0][schedule.ColArtist])

	other, err := s.Read(ctx, "Other")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	require.NoError(t, s.Update(ctx, "Database", nil))
	rows, err = s.Read(ctx, "Database")
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.NoError(t, s.Ping(ctx))
}

func TestMemoryStore_Contract(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_CopiesRows(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rows := sampleRows()
	require.NoError(t, s.Update(ctx, "Database", rows))

	rows[0][schedule.ColArtist] = "mutated"
	got, err := s.Read(ctx, "Database")
	require.NoError(t, err)
	assert.Equal(t, "Daft Punk", got[0][schedule.ColArtist])

	got[0][schedule.ColArtist] = "mutated again"
	again, _ := s.Read(ctx, "Database")
	assert.Equal(t, "Daft Punk", again[0][schedule.ColArtist])
}

func TestSQLiteStore_Contract(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	testStoreContract(t, s)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tracker.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, "Database", sampleRows()))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	rows, err := s.Read(ctx, "Database")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	s, closeFn, err := New(ctx, Config{}, log)
	require.NoError(t, err)
	closeFn()
	assert.IsType(t, &MemoryStore{}, s)

	_, _, err = New(ctx, Config{Production: true}, log)
	assert.Error(t, err, "memory store refused in production")

	s, closeFn, err = New(ctx, Config{SQLitePath: filepath.Join(t.TempDir(), "t.db")}, log)
	require.NoError(t, err)
	t.Cleanup(closeFn)
	assert.IsType(t, &SQLiteStore{}, s)

	_, _, err = New(ctx, Config{Backend: "sheets"}, log)
	assert.Error(t, err)

	_, _, err = New(ctx, Config{Backend: "redis", RedisURL: "not a url"}, log)
	assert.Error(t, err)
}
