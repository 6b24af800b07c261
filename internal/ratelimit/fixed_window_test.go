package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiterRedis(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	ctx := context.Background()
	if ok, _ := limiter.Allow(ctx, "dreams|ip-1"); !ok {
		t.Fatalf("first request should pass")
	}
	if ok, _ := limiter.Allow(ctx, "dreams|ip-1"); !ok {
		t.Fatalf("second request should pass")
	}
	ok, retry := limiter.Allow(ctx, "dreams|ip-1")
	if ok {
		t.Fatalf("third request should be blocked")
	}
	if retry <= 0 || retry > time.Minute {
		t.Fatalf("retry after = %v", retry)
	}
	if ok, _ := limiter.Allow(ctx, "dreams|ip-2"); !ok {
		t.Fatalf("other keys keep their own quota")
	}
}

func TestFixedWindowLimiterRedisFailClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	redis.Close()
	ok, retry := limiter.Allow(context.Background(), "ip-1")
	if ok {
		t.Fatalf("limiter should fail closed on redis errors")
	}
	if retry != time.Second {
		t.Fatalf("fail-closed retry = %v, want full window", retry)
	}
}

func TestFixedWindowLimiterRequiresRedisAddr(t *testing.T) {
	limiter, err := NewRedisFixedWindowLimiter("", "", "test:ratelimit", 1, time.Second)
	if err == nil || limiter != nil {
		t.Fatalf("expected constructor error for empty redis addr")
	}
}

func TestFixedWindowLimiterRejectsNonPositiveLimit(t *testing.T) {
	redis := miniredis.RunT(t)
	if _, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "", 0, time.Second); err == nil {
		t.Fatalf("expected error for zero limit")
	}
}
