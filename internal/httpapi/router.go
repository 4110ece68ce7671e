package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatlens/internal/auth"
)

// NewRouter configures the Gin router: unauthenticated login/refresh, and
// the query/report surface behind the operator's access token. Grounded on
// the teacher's router.go group-then-route layout.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *auth.JWTService,
	loginLimiter auth.RateLimiter,
	authH *AuthHandler,
	queryH *QueryHandler,
	reportH *ReportHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	authGroup := r.Group("/auth")
	authGroup.POST("/login", loginRateLimitMiddleware(loginLimiter), authH.Login)
	authGroup.POST("/refresh", authH.Refresh)

	protected := r.Group("/", jwtAuthMiddleware(jwtSvc))
	protected.POST("/query", queryH.Ask)
	protected.GET("/reports/redaction", reportH.RedactionReport)
	protected.GET("/reports/missing-attachments", reportH.MissingAttachments)

	return r
}
