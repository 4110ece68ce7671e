package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrByFloatCappedScript mirrors policy.Ledger.Spend into Redis: it
// accumulates epsilon spend per fingerprint and refuses the increment if it
// would exceed cap (ARGV[2]), so a crash-restarted process still sees prior
// spend rather than resetting every budget to zero. A cap of 0 means
// uncapped, matching policy.Ledger's own convention.
const incrByFloatCappedScript = `
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local delta = tonumber(ARGV[1])
local cap = tonumber(ARGV[2])
if cap > 0 and current + delta > cap then
  return {current, 0}
end
local updated = current + delta
redis.call("SET", KEYS[1], tostring(updated))
return {updated, 1}
`

// ErrDPBudgetExhausted mirrors policy.ErrBudgetExhausted for callers that
// only see the Redis-backed ledger, without importing internal/policy here.
var ErrDPBudgetExhausted = errorString("dp budget exhausted")

type errorString string

func (e errorString) Error() string { return string(e) }

// DPLedgerMirror is a Redis-backed mirror of policy.Ledger's cumulative
// epsilon-spend tracking. It does not replace the in-process Ledger (which
// remains the authoritative mutual-exclusion region within one process
// lifetime, per spec.md §5) — it durably records the same spend so a
// restarted process can rebuild its caps/used maps instead of granting every
// fingerprint a fresh budget. Reuses the teacher's INCR+EXPIRE Lua-script
// idiom (see ratelimiter.go), adapted to an uncapped-until-told
// INCRBYFLOAT-with-cap-check since epsilon spend is a float and has no
// natural expiry window.
type DPLedgerMirror struct {
	client *redis.Client
	prefix string
}

// NewDPLedgerMirror returns nil if client is nil, so a deployment without
// Redis runs with the in-process Ledger only (spend does not survive a
// restart, but nothing fails).
func NewDPLedgerMirror(client *redis.Client) *DPLedgerMirror {
	if client == nil {
		return nil
	}
	return &DPLedgerMirror{client: client, prefix: "auth:dp:spend:"}
}

// Spend records an additional epsilon spend against fingerprint, returning
// ErrDPBudgetExhausted if it would exceed cap (0 = uncapped). Safe to call
// on a nil receiver: it then always succeeds, mirroring the graceful
// degradation of the login rate limiter.
func (m *DPLedgerMirror) Spend(fingerprint string, epsilon, cap float64) error {
	if m == nil || m.client == nil {
		return nil
	}
	key := strings.TrimSpace(fingerprint)
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	res, err := m.client.Eval(ctx, incrByFloatCappedScript, []string{m.prefix + key},
		strconv.FormatFloat(epsilon, 'f', -1, 64),
		strconv.FormatFloat(cap, 'f', -1, 64),
	).Result()
	if err != nil {
		return nil
	}
	pair, ok := res.([]interface{})
	if !ok || len(pair) != 2 {
		return nil
	}
	if allowed, _ := pair[1].(int64); allowed == 0 {
		return ErrDPBudgetExhausted
	}
	return nil
}

// Spent returns the cumulative epsilon recorded for fingerprint, or 0 if
// unset or the mirror is unavailable.
func (m *DPLedgerMirror) Spent(fingerprint string) float64 {
	if m == nil || m.client == nil {
		return 0
	}
	key := strings.TrimSpace(fingerprint)
	if key == "" {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	val, err := m.client.Get(ctx, m.prefix+key).Result()
	if err != nil {
		return 0
	}
	spent, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	return spent
}
