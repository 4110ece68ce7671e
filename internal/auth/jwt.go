package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPair is the access/refresh pair issued on login, per the teacher's
// JWTService.GeneratePair shape.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims carries the operator's identity; generalized from the teacher's
// Claims (which carried Email/DisplayName/AuthProvider for multi-user
// signup) down to the single OperatorID field this system needs.
type Claims struct {
	OperatorID string `json:"oid"`
	TokenType  string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// JWTService issues and validates the operator's session tokens. Grounded
// on the teacher's JWTService: same HS256 signing, same access/refresh
// token-type discipline, same RefreshTokenStore-backed revocation.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	store      RefreshTokenStore
}

// NewJWTService builds a JWTService over an in-memory refresh token store.
func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) *JWTService {
	return NewJWTServiceWithStore(secret, accessTTL, refreshTTL, NewMemoryRefreshTokenStore())
}

// NewJWTServiceWithStore builds a JWTService over a caller-supplied
// refresh token store (e.g. the Redis-backed one, for restart durability).
func NewJWTServiceWithStore(secret string, accessTTL, refreshTTL time.Duration, store RefreshTokenStore) *JWTService {
	return &JWTService{
		secret:     []byte(secret),
		accessTTL:  sessionTTLOrDefault(accessTTL, 15*time.Minute),
		refreshTTL: sessionTTLOrDefault(refreshTTL, 30*24*time.Hour),
		issuer:     "chatlens",
		store:      store,
	}
}

// GeneratePair issues a fresh access/refresh pair for the operator.
func (s *JWTService) GeneratePair(operatorID string) (TokenPair, error) {
	if len(s.secret) == 0 {
		return TokenPair{}, ErrTokenInvalid
	}
	now := time.Now().UTC()
	access, err := s.signToken(operatorID, now, s.accessTTL, "access", "")
	if err != nil {
		return TokenPair{}, err
	}
	jti := uuid.NewString()
	refresh, err := s.signToken(operatorID, now, s.refreshTTL, "refresh", jti)
	if err != nil {
		return TokenPair{}, err
	}
	if s.store != nil {
		if err := s.store.Store(jti, operatorID, s.refreshTTL); err != nil {
			return TokenPair{}, err
		}
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(s.accessTTL.Seconds())}, nil
}

// RefreshPair rotates a refresh token: the presented token is revoked and
// a new pair is issued, one-time-use per the teacher's pattern.
func (s *JWTService) RefreshPair(refreshToken string) (TokenPair, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.TokenType != "refresh" || claims.ID == "" || s.store == nil {
		return TokenPair{}, ErrTokenInvalid
	}
	ok, err := s.store.Exists(claims.ID)
	if err != nil || !ok {
		return TokenPair{}, ErrTokenInvalid
	}
	if err := s.store.Revoke(claims.ID); err != nil {
		return TokenPair{}, ErrTokenInvalid
	}
	return s.GeneratePair(claims.OperatorID)
}

// RevokeRefresh invalidates a refresh token before its natural expiry
// (logout).
func (s *JWTService) RevokeRefresh(refreshToken string) error {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return err
	}
	if claims.TokenType != "refresh" || claims.ID == "" || s.store == nil {
		return ErrTokenInvalid
	}
	return s.store.Revoke(claims.ID)
}

// ParseAccessToken validates an access token and returns its claims.
func (s *JWTService) ParseAccessToken(accessToken string) (Claims, error) {
	claims, err := s.parseToken(accessToken)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != "access" {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *JWTService) signToken(operatorID string, now time.Time, ttl time.Duration, tokenType, jti string) (string, error) {
	claims := Claims{
		OperatorID: operatorID,
		TokenType:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) parseToken(tokenString string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrTokenInvalid
	}
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.OperatorID) == "" || claims.Subject != claims.OperatorID || claims.Issuer != s.issuer {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
