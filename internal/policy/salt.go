package policy

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// saltSize matches spec.md §6's persisted 64-hex-char salt file (32 raw
// bytes).
const saltSize = 32

// SaltStore loads or generates the pseudonymization salt exactly once,
// protected by a one-time initializer (spec.md §5 "read-mostly, loaded
// once").
type SaltStore struct {
	once sync.Once
	salt []byte
	err  error
	load func() ([]byte, error)
}

// NewSaltStore wraps a loader function (typically reading a salt file,
// generating one on first run) with once-only initialization semantics.
func NewSaltStore(load func() ([]byte, error)) *SaltStore {
	return &SaltStore{load: load}
}

// Salt returns the run's salt, initializing it on first call.
func (s *SaltStore) Salt() ([]byte, error) {
	s.once.Do(func() {
		s.salt, s.err = s.load()
	})
	return s.salt, s.err
}

// GenerateSalt returns a new random 32-byte salt.
func GenerateSalt() ([]byte, error) {
	b := make([]byte, saltSize)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return b, nil
}

// EncodeSalt renders a salt as the 64-hex-char persisted form.
func EncodeSalt(salt []byte) string {
	return hex.EncodeToString(salt)
}

// DecodeSalt parses the 64-hex-char persisted form back to raw bytes.
func DecodeSalt(encoded string) ([]byte, error) {
	b, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	if len(b) != saltSize {
		return nil, fmt.Errorf("decode salt: expected %d bytes, got %d", saltSize, len(b))
	}
	return b, nil
}
