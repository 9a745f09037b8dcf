// File: internal/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"strings"

	"guidecheck_backend/internal/common"
	"guidecheck_backend/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminAuthMiddleware guards mutating endpoints (scan triggers, finding
// resolution) with the static ADMIN_API_TOKEN bearer token. When no token is
// configured the admin surface is disabled entirely rather than left open.
func AdminAuthMiddleware(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.AdminAPIToken == "" {
			logger.Warn("Admin endpoint hit but ADMIN_API_TOKEN is not configured",
				zap.String("path", c.Request.URL.Path))
			common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails("Admin API is not configured."))
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Missing bearer token."))
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.AdminAPIToken)) != 1 {
			logger.Warn("Admin token mismatch",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(RequestIDContextKey)))
			common.RespondWithError(c, common.ErrForbidden.WithDetails("Invalid admin token."))
			return
		}

		c.Next()
	}
}
