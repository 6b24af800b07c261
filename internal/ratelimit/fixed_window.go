package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "dreamweaver:ratelimit"

// The script returns the hit count and the remaining window in milliseconds.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// FixedWindowLimiter limits requests per key in a fixed time window shared
// through Redis.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration
	client *redis.Client
	prefix string
}

// NewFixedWindowLimiter builds a limiter on an existing client. An empty
// prefix uses "dreamweaver:ratelimit".
func NewFixedWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	if client == nil {
		return nil, errors.New("rate limiter redis client is required")
	}
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &FixedWindowLimiter{limit: limit, window: window, client: client, prefix: prefix}, nil
}

// NewRedisFixedWindowLimiter creates a limiter with its own Redis client.
func NewRedisFixedWindowLimiter(addr, password, prefix string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	return NewFixedWindowLimiter(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}), prefix, limit, window)
}

// Allow reports whether key is within quota and, when it is not, how long
// until the window resets. Redis failures fail closed with a full window.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l == nil {
		return false, 0
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	slot := time.Now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	res, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64Slice()
	if err != nil || len(res) != 2 {
		return false, l.window
	}
	if res[0] <= int64(l.limit) {
		return true, 0
	}
	retry := time.Duration(res[1]) * time.Millisecond
	if retry <= 0 {
		retry = l.window
	}
	return false, retry
}
