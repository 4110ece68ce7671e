package policy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Tokenizer produces opaque tokens `⟦TKN:<KIND>:<8-hex>⟧` per spec.md §4.1
// and §6, consistent within a run: the same (surface, kind) pair always
// maps to the same token under the per-salt HMAC construction. Grounded on
// the deterministic-token idiom of
// other_examples/355cb2d3_laplaque-ai-anonymizing-proxy's `replacement`
// method, upgraded from MD5 to an HMAC keyed by the run salt so tokens
// cannot be reconstructed without it.
type Tokenizer struct {
	salt []byte

	mu    sync.RWMutex
	cache map[string]string // "(kind, surface)" -> token
}

// NewTokenizer builds a Tokenizer bound to a run's pseudonymization salt.
func NewTokenizer(salt []byte) *Tokenizer {
	return &Tokenizer{salt: salt, cache: make(map[string]string)}
}

// Token returns the opaque token for (kind, surface), consistent across
// calls within the Tokenizer's lifetime (spec.md §8 consistency invariant).
func (t *Tokenizer) Token(kind PIIKind, surface string) string {
	key := string(kind) + "\x00" + surface
	t.mu.RLock()
	if tok, ok := t.cache[key]; ok {
		t.mu.RUnlock()
		return tok
	}
	t.mu.RUnlock()

	tok := fmt.Sprintf("⟦TKN:%s:%s⟧", kind, t.hash8(key))

	t.mu.Lock()
	t.cache[key] = tok
	t.mu.Unlock()
	return tok
}

func (t *Tokenizer) hash8(key string) string {
	mac := hmac.New(sha256.New, t.salt)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))[:8]
}

// BracketToken returns the non-pseudonymizing replacement form `[KIND]`
// used when opaque tokens are disabled by policy.
func BracketToken(kind PIIKind) string {
	return fmt.Sprintf("[%s]", kind)
}
