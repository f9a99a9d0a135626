package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/example/music-odyssey/internal/schedule"
)

const redisKeyPrefix = "music-odyssey:worksheet:"

// RedisStore keeps each worksheet as one JSON array value.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Read(ctx context.Context, worksheet string) ([]schedule.Record, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+worksheet).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(val))
	dec.UseNumber()
	var rows []schedule.Record
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode worksheet %s: %w", worksheet, err)
	}
	return rows, nil
}

func (s *RedisStore) Update(ctx context.Context, worksheet string, rows []schedule.Record) error {
	if rows == nil {
		rows = []schedule.Record{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+worksheet, b, 0).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
