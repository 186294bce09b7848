package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a write-through sink for cache entries. It is intentionally
// write-only from the Cache's point of view: nothing in this package
// ever calls a read method on it. That keeps a Redis mirror purely
// observational (handy for an operator poking at keys out of band)
// without turning it into a second source of truth that would survive
// a process restart, which the cache is explicitly not meant to do.
type Store interface {
	Set(region, key string, value any) error
}

// RedisMirror writes every cache mutation to Redis under
// "predictmkt:<region>:<key>" with the region's TTL, using a
// short-lived context per call so a slow or unreachable Redis never
// blocks the caller for long.
type RedisMirror struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisMirror builds a mirror against an already-configured client.
// ttl is applied to every key written (Redis expires it independently
// of the in-memory region's own TTL bookkeeping).
func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, ttl: ttl, timeout: 2 * time.Second}
}

func (m *RedisMirror) Set(region, key string, value any) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal mirrored value: %w", err)
	}

	redisKey := fmt.Sprintf("predictmkt:%s:%s", region, key)
	if err := m.client.Set(ctx, redisKey, payload, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis mirror set: %w", err)
	}
	return nil
}
