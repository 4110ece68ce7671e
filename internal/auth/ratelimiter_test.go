package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestRedisRateLimiterAllow(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisRateLimiter
		if !l.Allow("operator@example.com") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{result: 1}, window: time.Minute, max: 5, prefix: "auth:login:rl:"}
		if l.Allow("   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})

	t.Run("allow when count within max", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 2}
		l := &redisRateLimiter{client: mock, window: 2 * time.Minute, max: 5, prefix: "auth:login:rl:"}
		if !l.Allow(" Operator@Example.com ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "auth:login:rl:operator@example.com" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 120 {
			t.Fatalf("expected TTL seconds=120, got %+v", mock.lastArgs)
		}
		if mock.lastScript != incrExpireScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("deny when count exceeds max", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{result: 6}, window: time.Minute, max: 5, prefix: "auth:login:rl:"}
		if l.Allow("operator@example.com") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{err: errors.New("redis down")}, window: time.Minute, max: 5, prefix: "auth:login:rl:"}
		if !l.Allow("operator@example.com") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}

func TestNewLoginRateLimiterNilClientAlwaysAllows(t *testing.T) {
	limiter := NewLoginRateLimiter(nil, time.Minute, 5)
	if limiter == nil {
		t.Fatalf("expected non-nil limiter even with nil client")
	}
	for i := 0; i < 10; i++ {
		if !limiter.Allow("operator@example.com") {
			t.Fatalf("expected nil-client limiter to always allow")
		}
	}
}

func TestNewLoginRateLimiterAppliesDefaults(t *testing.T) {
	limiter := NewLoginRateLimiter(nil, 0, 0).(*redisRateLimiter)
	if limiter.window != time.Minute {
		t.Fatalf("expected default window of one minute, got %v", limiter.window)
	}
	if limiter.max != 5 {
		t.Fatalf("expected default max of 5, got %d", limiter.max)
	}
}
