// File: internal/middleware/logger.go
package middleware

import (
	"time"

	"guidecheck_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// RequestIDHeader is the header name for request ID
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey is the key for storing request ID in Gin context
	RequestIDContextKey = "requestID"
)

// ZapLogger is a Gin middleware that logs requests using Zap.
func ZapLogger(logger *zap.Logger, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			c.Header(RequestIDHeader, requestID)
		}
		c.Set(RequestIDContextKey, requestID)

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := []zapcore.Field{
			zap.Int("status_code", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.String("request_id", requestID),
		}

		if len(c.Errors) > 0 {
			for _, e := range c.Errors.ByType(gin.ErrorTypePrivate) {
				fields = append(fields, zap.NamedError("error", e.Err))
			}
		}

		switch {
		case statusCode >= 500:
			logger.Error("Server error", fields...)
		case statusCode >= 400:
			logger.Warn("Client error", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}
