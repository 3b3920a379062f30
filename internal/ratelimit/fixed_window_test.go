package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestFixedWindowLimiter(t *testing.T) {
	_, client := newClient(t)
	limiter, err := NewFixedWindowLimiter(client, "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	ctx := context.Background()
	for i, want := range []bool{true, true, false} {
		ok, err := limiter.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if ok != want {
			t.Fatalf("allow %d = %v, want %v", i, ok, want)
		}
	}
	ok, err := limiter.Allow(ctx, "user-2")
	if err != nil || !ok {
		t.Fatalf("other key should pass, ok=%v err=%v", ok, err)
	}
}

func TestFixedWindowLimiterFailClosed(t *testing.T) {
	mr, client := newClient(t)
	limiter, err := NewFixedWindowLimiter(client, "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	mr.Close()
	ok, err := limiter.Allow(context.Background(), "user-1")
	if ok || err == nil {
		t.Fatalf("limiter should fail closed, ok=%v err=%v", ok, err)
	}
}

func TestFixedWindowLimiterValidates(t *testing.T) {
	_, client := newClient(t)
	if _, err := NewFixedWindowLimiter(client, "", 0, time.Second); err == nil {
		t.Fatalf("expected zero limit to fail")
	}
	if _, err := NewFixedWindowLimiter(nil, "", 1, time.Second); err == nil {
		t.Fatalf("expected nil client to fail")
	}
	if _, err := NewFixedWindowLimiter(client, "", 1, 500*time.Microsecond); err == nil {
		t.Fatalf("expected sub-millisecond window to fail")
	}
}

func TestFixedWindowLimiterZeroWindowFailsClosed(t *testing.T) {
	_, client := newClient(t)
	limiter := &FixedWindowLimiter{limit: 1, window: time.Microsecond, client: client, prefix: "test:ratelimit"}
	ok, err := limiter.Allow(context.Background(), "user-1")
	if ok || err == nil {
		t.Fatalf("limiter should reject, ok=%v err=%v", ok, err)
	}
}
