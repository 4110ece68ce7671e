package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatlens/internal/auth"
)

// AuthHandler issues and rotates the operator's session tokens. There is no
// signup/registration route: the operator identity is fixed at deployment
// from config.OperatorPasswordHash, per the single-operator model
// (internal/auth's package doc).
type AuthHandler struct {
	logger   *zap.Logger
	operator auth.Operator
	jwtSvc   *auth.JWTService
}

func NewAuthHandler(logger *zap.Logger, operator auth.Operator, jwtSvc *auth.JWTService) *AuthHandler {
	return &AuthHandler{logger: logger, operator: operator, jwtSvc: jwtSvc}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.operator.Authenticate(req.Password); err != nil {
		h.logger.Warn("operator login failed", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	pair, err := h.jwtSvc.GeneratePair(h.operator.ID)
	if err != nil {
		h.logger.Error("issue token pair failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	pair, err := h.jwtSvc.RefreshPair(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}
