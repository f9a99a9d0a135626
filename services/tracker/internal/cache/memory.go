package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type item struct {
	val       []byte
	expiresAt time.Time
}

// Broadcaster is the subset of *nats.Conn used to announce deletions.
type Broadcaster interface {
	Publish(subj string, data []byte) error
}

// MemoryCache is an in-process Cache with per-entry expiry. A ttl <= 0
// keeps entries for the life of the process.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]item
	ttl   time.Duration
	now   func() time.Time

	pub  Broadcaster
	subj string
	log  *zap.Logger
}

// Option configures a MemoryCache.
type Option func(*MemoryCache)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *MemoryCache) { c.now = now }
}

// WithBroadcast announces every Delete on subj so other instances drop the
// key too.
func WithBroadcast(pub Broadcaster, subj string) Option {
	return func(c *MemoryCache) { c.pub, c.subj = pub, subj }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *MemoryCache) { c.log = log }
}

func NewMemoryCache(ttl time.Duration, opts ...Option) *MemoryCache {
	c := &MemoryCache{
		items: make(map[string]item),
		ttl:   ttl,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Subscribe drops keys named on subj; "ALL" or an empty payload clears
// the cache.
func (c *MemoryCache) Subscribe(nc *nats.Conn, subj string) (*nats.Subscription, error) {
	return nc.Subscribe(subj, func(m *nats.Msg) {
		c.invalidate(string(m.Data))
	})
}

func (c *MemoryCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == "" || strings.EqualFold(key, InvalidateAll) {
		c.items = make(map[string]item)
		return
	}
	delete(c.items, key)
}

func (c *MemoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !it.expiresAt.IsZero() && c.now().After(it.expiresAt) {
		c.mu.Lock()
		if cur, ok2 := c.items[key]; ok2 && !cur.expiresAt.IsZero() && c.now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(it.val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	it := item{val: b}
	if c.ttl > 0 {
		it.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
	return nil
}

// Delete removes key locally and, when configured, on every other
// instance. A failed broadcast is logged, not returned.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.invalidate(key)
	if c.pub != nil && c.subj != "" {
		if err := c.pub.Publish(c.subj, []byte(key)); err != nil {
			c.log.Warn("cache: invalidation broadcast failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
