package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "dreamweaver:kv"

// RedisStore persists values as plain Redis strings under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore builds a Redis-backed store. An empty prefix uses
// "dreamweaver:kv".
func NewRedisStore(addr, password, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: strings.TrimSuffix(prefix, ":"),
	}
}

func (s *RedisStore) redisKey(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrKeyRequired
	}
	if err := s.client.Set(ctx, s.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
