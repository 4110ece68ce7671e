package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrExpireScript atomically increments a counter and sets its expiry on
// first increment, so a burst within one window counts once and the
// window resets cleanly. Identical in shape to the teacher's
// redisOTPAllowScript; reused here as the operator login rate limiter
// instead of an OTP-send limiter (this system has no OTP flow — see
// DESIGN.md).
const incrExpireScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

// RateLimiter reports whether a keyed action is still allowed within its
// window.
type RateLimiter interface {
	Allow(key string) bool
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

// NewLoginRateLimiter builds a Redis-backed rate limiter for operator
// login attempts, keyed by client IP or username. A nil client is stored
// as-is: Allow then always returns true, so a deployment without Redis
// degrades to unlimited local login rather than failing startup.
func NewLoginRateLimiter(client *redis.Client, window time.Duration, max int) RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 5
	}
	if client == nil {
		return &redisRateLimiter{client: nil, window: window, max: max, prefix: "auth:login:rl:"}
	}
	return &redisRateLimiter{client: client, window: window, max: max, prefix: "auth:login:rl:"}
}

func (l *redisRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, incrExpireScript, []string{l.prefix + normalized}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}
