package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisProgressStore keeps progress records as JSON documents under
// prefix+userID.
type RedisProgressStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisProgress connects to Redis and verifies the connection.
func NewRedisProgress(ctx context.Context, addr, prefix string) (*RedisProgressStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisProgressStore{rdb: rdb, prefix: prefix}, nil
}

// GetProgress returns the progress document for userID, or nil when the key
// does not exist.
func (s *RedisProgressStore) GetProgress(ctx context.Context, userID string) (map[string]any, error) {
	raw, err := s.rdb.Get(ctx, s.prefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get progress: %w", err)
	}

	fields, err := decodeFields(raw)
	if err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", userID, err)
	}
	return fields, nil
}

// UpsertProgress stores the progress document for userID.
func (s *RedisProgressStore) UpsertProgress(ctx context.Context, userID string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := s.rdb.Set(ctx, s.prefix+userID, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set progress: %w", err)
	}
	return nil
}

// Ping verifies Redis connectivity.
func (s *RedisProgressStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisProgressStore) Close() error {
	return s.rdb.Close()
}
