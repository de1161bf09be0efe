package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage is a Redis-backed [Storage].
//
// Keys are namespaced as prefix:namespace:key so several clients (browser
// tabs, devices, CLI profiles) can share one Redis without colliding.
type RedisStorage struct {
	redis     redis.UniversalClient
	prefix    string
	namespace string
	ttl       time.Duration
}

// NewRedisStorage creates a [RedisStorage]. A ttl <= 0 stores keys without
// expiry.
func NewRedisStorage(
	redis redis.UniversalClient,
	prefix string,
	namespace string,
	ttl time.Duration,
) *RedisStorage {
	if prefix == "" {
		prefix = "gca"
	}
	if namespace == "" {
		namespace = "default"
	}
	return &RedisStorage{
		redis:     redis,
		prefix:    prefix,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (s *RedisStorage) key(k string) string {
	return s.prefix + ":" + s.namespace + ":" + k
}

// Get reads one key.
//
//	Performance: 1 Redis GET.
func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return v, true, nil
}

// Set writes all values in one MULTI/EXEC so readers never observe half a
// mirror.
//
//	Performance: 1 round-trip (TxPipelined SET xN).
func (s *RedisStorage) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, s.key(k), v, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Delete removes keys; missing keys are not an error.
//
//	Performance: 1 Redis DEL.
func (s *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(k))
	}
	if err := s.redis.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStorage) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return time.Since(start), nil
}
