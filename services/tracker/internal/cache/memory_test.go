package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)

type payload struct {
	Name  string
	Count int
}

type fakeBroadcaster struct {
	subj []string
	data []string
	err  error
}

func (f *fakeBroadcaster) Publish(subj string, data []byte) error {
	f.subj = append(f.subj, subj)
	f.data = append(f.data, string(data))
	return f.err
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	var got payload
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	in := payload{Name: "a", Count: 1}
	require.NoError(t, c.Set(ctx, "k", in))
	in.Count = 99

	ok, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{Name: "a", Count: 1}, got, "values are copies")
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute, WithClock(func() time.Time { return now }))

	require.NoError(t, c.Set(ctx, "k", 1))
	now = now.Add(59 * time.Second)
	var v int
	ok, _ := c.Get(ctx, "k", &v)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = c.Get(ctx, "k", &v)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entries are evicted on read")
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(0, WithClock(func() time.Time { return now }))

	require.NoError(t, c.Set(ctx, "k", "v"))
	now = now.AddDate(1, 0, 0)
	var v string
	ok, _ := c.Get(ctx, "k", &v)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMemoryCache_DeleteBroadcasts(t *testing.T) {
	ctx := context.Background()
	pub := &fakeBroadcaster{}
	c := NewMemoryCache(time.Minute, WithBroadcast(pub, "tracker.cache.invalidate"))

	require.NoError(t, c.Set(ctx, "table:Database", []int{1}))
	require.NoError(t, c.Delete(ctx, "table:Database"))

	var v []int
	ok, _ := c.Get(ctx, "table:Database", &v)
	assert.False(t, ok)
	assert.Equal(t, []string{"tracker.cache.invalidate"}, pub.subj)
	assert.Equal(t, []string{"table:Database"}, pub.data)

	pub.err = errors.New("nats down")
	assert.NoError(t, c.Delete(ctx, "other"), "broadcast failures are not returned")
}

func TestMemoryCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	require.NoError(t, c.Set(ctx, "a", 1))
	require.NoError(t, c.Set(ctx, "b", 2))

	c.invalidate("a")
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Set(ctx, "a", 1))
	c.invalidate("all")
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_DecodeError(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	require.NoError(t, c.Set(ctx, "k", "text"))

	var n int
	_, err := c.Get(ctx, "k", &n)
	assert.Error(t, err)
}
