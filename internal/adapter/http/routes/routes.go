package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"accountapp/internal/adapter/http/handler"
	"accountapp/internal/adapter/http/middleware"
	"accountapp/internal/core/port"
	"accountapp/internal/core/telemetry"
	. "accountapp/pkg/config"
	. "accountapp/pkg/middlewares"
)

type HandlersConfig struct {
	AuthHandler    *handler.AuthHandler
	AccountHandler *handler.AccountHandler

	Accounts port.AccountRepository
	Issuer   port.TokenIssuer
	Revoker  port.TokenRevoker
}

func SetupRouterWithConfig(handlers HandlersConfig, metrics *telemetry.AppMetrics, logger *LokiLogger, config *AppConfig) *gin.Engine {
	router := gin.New()

	if err := router.SetTrustedProxies(config.TrustedProxies); err != nil {
		logger.Logger.Error("Ignoring invalid trusted proxies", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	SetupGinMiddleware(router, config, metrics, logger, middleware.CurrentMiddleware())
	router.Use(corsMiddleware())

	limit := func(c *gin.Context) { c.Next() }

	if config.RateLimitEnabled {
		limit = NewRateLimiter(logger.Logger.Logger, metrics).RateLimitMiddleware()
	}

	authenticate := middleware.Authenticate(handlers.Issuer, handlers.Revoker, metrics, logger.Logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	setupPublicRoutes(router, handlers.AuthHandler, limit)
	setupAccountRoutes(router, handlers.AccountHandler, authenticate, limit)
	requireAdmin := middleware.RequireAdmin(handlers.Accounts, logger.Logger)

	setupAdminRoutes(router, handlers.AccountHandler, authenticate, requireAdmin, limit)

	return router
}

func setupPublicRoutes(router *gin.Engine, authHandler *handler.AuthHandler, limit gin.HandlerFunc) {
	public := router.Group("/api/users")
	public.Use(limit)
	{
		public.POST("/login", authHandler.Login)
	}
}

func setupAccountRoutes(router *gin.Engine, accountHandler *handler.AccountHandler, authenticate, limit gin.HandlerFunc) {
	protected := router.Group("/api/users")
	protected.Use(authenticate, limit)
	{
		protected.PUT("/:id", accountHandler.Update)
		protected.PUT("/:id/password", accountHandler.ChangePassword)
		protected.PUT("/:id/login", accountHandler.ChangeLogin)
		protected.POST("/me", accountHandler.Me)
	}
}

func setupAdminRoutes(router *gin.Engine, accountHandler *handler.AccountHandler, authenticate, requireAdmin, limit gin.HandlerFunc) {
	admin := router.Group("/api/users")
	admin.Use(authenticate, requireAdmin, limit)
	{
		admin.POST("", accountHandler.Create)
		admin.GET("", accountHandler.List)
		admin.GET("/by-login/:login", accountHandler.FindByLogin)
		admin.GET("/older-than/:age", accountHandler.ListOlderThan)
		admin.PUT("/:id/restore", accountHandler.Restore)
		admin.DELETE("/:id", accountHandler.Revoke)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
