// Package auth gates the local query API behind a single operator account:
// one bcrypt password hash loaded from configuration, JWT access/refresh
// tokens, and a Redis-backed login rate limiter. Grounded on the teacher's
// auth stack (internal/service/{jwt_service,refresh_token_store,
// otp_rate_limiter_redis,user_service}.go), trimmed from multi-user signup
// to a single operator identity — this system has one analyst per
// deployment, not a user base (spec.md §1 "local-first").
package auth

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Operator is the single analyst account permitted to query this
// deployment. Unlike the teacher's domain.User, it carries no email
// verification, OAuth provider, or OTP fields — those existed to support
// multi-user signup, which this system does not have.
type Operator struct {
	ID           string
	PasswordHash string
}

var ErrInvalidCredentials = errors.New("invalid operator credentials")

// NewOperator builds an Operator from a pre-hashed password (loaded from
// config.OperatorPasswordHash at startup).
func NewOperator(id, passwordHash string) Operator {
	return Operator{ID: id, PasswordHash: passwordHash}
}

// HashPassword bcrypt-hashes a plaintext password for storage in
// config.OperatorPasswordHash, grounded on the teacher's password-hashing
// choice (golang.org/x/crypto/bcrypt, already a teacher go.mod dependency).
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate reports whether plaintext matches the operator's stored
// hash.
func (o Operator) Authenticate(plaintext string) error {
	if o.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(plaintext)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// sessionTTLOrDefault mirrors the teacher's NewJWTService TTL-defaulting
// pattern.
func sessionTTLOrDefault(ttl, fallback time.Duration) time.Duration {
	if ttl <= 0 {
		return fallback
	}
	return ttl
}
