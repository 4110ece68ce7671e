package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatlens/internal/auth"
)

func newTestAuthHandler(t *testing.T) (*AuthHandler, auth.Operator) {
	t.Helper()
	hash, err := auth.HashPassword("correct-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	operator := auth.NewOperator("op1", hash)
	jwtSvc := auth.NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, auth.NewMemoryRefreshTokenStore())
	return NewAuthHandler(zap.NewNop(), operator, jwtSvc), operator
}

func TestAuthHandlerLoginSucceeds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTestAuthHandler(t)

	r := gin.New()
	r.POST("/auth/login", h.Login)

	body, _ := json.Marshal(map[string]string{"password": "correct-password"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandlerLoginRejectsWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTestAuthHandler(t)

	r := gin.New()
	r.POST("/auth/login", h.Login)

	body, _ := json.Marshal(map[string]string{"password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandlerRefreshRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTestAuthHandler(t)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)

	loginBody, _ := json.Marshal(map[string]string{"password": "correct-password"})
	loginReq := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(loginBody))
	loginReq.Header.Set("Content-Type", "application/json")
	loginRec := httptest.NewRecorder()
	r.ServeHTTP(loginRec, loginReq)

	var loginResp struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(loginRec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}

	refreshBody, _ := json.Marshal(map[string]string{"refresh_token": loginResp.Tokens.RefreshToken})
	refreshReq := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(refreshBody))
	refreshReq.Header.Set("Content-Type", "application/json")
	refreshRec := httptest.NewRecorder()
	r.ServeHTTP(refreshRec, refreshReq)

	if refreshRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", refreshRec.Code, refreshRec.Body.String())
	}
}

func TestAuthHandlerRefreshRejectsInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTestAuthHandler(t)

	r := gin.New()
	r.POST("/auth/refresh", h.Refresh)

	body, _ := json.Marshal(map[string]string{"refresh_token": "not-a-real-token"})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
