// Package httpapi exposes the RAG query engine and the redaction/missing-
// attachments reports over a small local HTTP API, gated by the operator
// auth gate (internal/auth). Grounded on the teacher's
// internal/http/{router,jwt_middleware,handlers}.go: same Gin + zap
// middleware shape, same JWT-claims-in-context pattern — this is a thin
// local companion surface, not a specified product (spec.md Non-goal: does
// not serve a web UI), so the route set is deliberately small.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatlens/internal/auth"
)

const authClaimsKey = "auth_claims"

// zapLoggerMiddleware mirrors the teacher's request logger exactly.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// jwtAuthMiddleware validates the operator's access token and stores its
// claims in the request context, per the teacher's JWTAuthMiddleware.
func jwtAuthMiddleware(jwtSvc *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// authClaims fetches the operator claims the middleware stored.
func authClaims(c *gin.Context) (auth.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := val.(auth.Claims)
	return claims, ok
}

// loginRateLimitMiddleware blocks repeated failed login attempts from the
// same client before the handler even runs, keyed by client IP — the
// teacher applies its OTP limiter the same way, at the route boundary
// rather than inside the handler.
func loginRateLimitMiddleware(limiter auth.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
			c.Abort()
			return
		}
		c.Next()
	}
}
