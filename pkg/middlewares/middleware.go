package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"accountapp/internal/core/telemetry"
	. "accountapp/pkg/config"
)

func MetricsMiddleware(metrics *telemetry.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementActiveConnections(c.Request.Context())
		defer metrics.DecrementActiveConnections(c.Request.Context())

		c.Next()

		path := c.FullPath()

		if path == "" {
			path = "unmatched"
		}

		metrics.RecordRequest(
			c.Request.Context(),
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

// SetupGinMiddleware installs the router-wide chain. request seeds the
// per-request context and runs right after tracing.
func SetupGinMiddleware(router *gin.Engine, config *AppConfig, metrics *telemetry.AppMetrics, logger *LokiLogger, request gin.HandlerFunc) {
	router.Use(gin.Recovery())

	httpsEnforcer := NewHTTPSEnforcer(logger.Logger.Logger, config.EnforceHTTPS)
	router.Use(httpsEnforcer.HTTPSMiddleware())

	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(request)
	router.Use(LoggingMiddleware(logger))

	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
	}
}
