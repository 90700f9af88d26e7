package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowAllowsUpToLimit(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if !limiter.Allow("ip-1") {
		t.Fatalf("first request should be allowed")
	}
	if !limiter.Allow("ip-1") {
		t.Fatalf("second request should be allowed")
	}
	if limiter.Allow("ip-1") {
		t.Fatalf("third request should be blocked")
	}
	// A different key has its own quota.
	if !limiter.Allow("ip-2") {
		t.Fatalf("other key should be allowed")
	}
}

func TestFixedWindowFailsClosedWhenRedisDown(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "", 100, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	redis.Close()
	if limiter.Allow("ip-1") {
		t.Fatalf("limiter must fail closed when redis is unreachable")
	}
}

func TestFixedWindowRequiresAddr(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("", "", "", 1, time.Minute); err == nil {
		t.Fatalf("expected error for empty redis addr")
	}
}

func TestFixedWindowRequiresPositiveLimit(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "", 0, time.Minute); err == nil {
		t.Fatalf("expected error for zero limit")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "", 1, 0); err == nil {
		t.Fatalf("expected error for zero window")
	}
}
