package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"accountapp/internal/adapter/http/helper"
	"accountapp/internal/core/domain"
	"accountapp/internal/core/port"
	"accountapp/internal/core/telemetry"
	ct "accountapp/pkg/context"
)

const claimsKey = "claims"

// Authenticate accepts only bearer tokens that verify and were issued after
// the account's latest revocation marker.
func Authenticate(issuer port.TokenIssuer, revoker port.TokenRevoker, metrics *telemetry.AppMetrics, logger *otelzap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")

		if !found || strings.TrimSpace(token) == "" {
			helper.SendUnauthorizedError(c, "Missing bearer token")
			c.Abort()
			return
		}

		claims, err := issuer.Verify(strings.TrimSpace(token))

		if err != nil {
			logger.Ctx(ctx).Debug("Rejected access token", zap.Error(err))
			helper.SendUnauthorizedError(c, "Invalid or expired token")
			c.Abort()
			return
		}

		revoked, err := revoker.IsRevoked(ctx, claims)

		if err != nil {
			logger.Ctx(ctx).Error("Failed to check token revocation",
				zap.String("account_id", claims.Subject.String()),
				zap.Error(err))
			helper.SendInternalError(c, "Could not verify token", gin.H{"request_id": GetCurrent(c).RequestID()})
			c.Abort()
			return
		}

		if revoked {
			if metrics != nil {
				metrics.RecordRevokedToken(ctx)
			}

			helper.SendUnauthorizedError(c, "Token has been revoked")
			c.Abort()
			return
		}

		current := GetCurrent(c)
		current.Set(ct.AccountIDKey, claims.Subject.String())
		current.Set(ct.LoginKey, claims.Login)
		current.Set(ct.RoleKey, claims.Role.String())

		c.Set(ct.AccountIDKey, claims.Subject.String())
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate. The acting account is re-read
// so that a token outliving its account's admin flag or active state is
// refused even when its revocation marker has been lost.
func RequireAdmin(accounts port.AccountRepository, logger *otelzap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		claims, ok := GetClaims(c)

		if !ok {
			helper.SendUnauthorizedError(c, "Missing bearer token")
			c.Abort()
			return
		}

		if !claims.IsAdmin() {
			helper.SendForbiddenError(c, "Administrator role required")
			c.Abort()
			return
		}

		acting, err := accounts.GetByID(ctx, claims.Subject)

		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Ctx(ctx).Error("Failed to load acting account",
				zap.String("account_id", claims.Subject.String()),
				zap.Error(err))
			helper.SendInternalError(c, "Could not verify account", gin.H{"request_id": GetCurrent(c).RequestID()})
			c.Abort()
			return
		}

		if err != nil || acting.IsRevoked() || !acting.IsAdmin {
			logger.Ctx(ctx).Warn("Admin token refused",
				zap.String("account_id", claims.Subject.String()))
			helper.SendForbiddenError(c, "Administrator role required")
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetClaims(c *gin.Context) (domain.Claims, bool) {
	value, ok := c.Get(claimsKey)

	if !ok {
		return domain.Claims{}, false
	}

	claims, ok := value.(domain.Claims)
	return claims, ok
}
