package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	. "accountapp/pkg/config"
	ct "accountapp/pkg/context"
)

func LoggingMiddleware(logger *LokiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		ctx := c.Request.Context()
		requestID := ct.GetCurrent(ctx).RequestID()

		level := zapcore.InfoLevel

		if c.Writer.Status() >= 500 {
			level = zapcore.ErrorLevel
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("request_id", requestID),
		}

		// Query strings are never logged.
		if level == zapcore.ErrorLevel {
			logger.Logger.Ctx(ctx).Error("HTTP Request", fields...)
		} else {
			logger.Logger.Ctx(ctx).Info("HTTP Request", fields...)
		}

		if logger.PushEnabled() {
			pushed := map[string]any{
				"method":     c.Request.Method,
				"path":       path,
				"status":     c.Writer.Status(),
				"latency_ms": latency.Milliseconds(),
				"client_ip":  c.ClientIP(),
				"request_id": requestID,
			}

			go logger.Push(ctx, level, "HTTP Request", pushed)
		}
	}
}
