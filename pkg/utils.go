package pkg

import (
	"github.com/gin-gonic/gin"
)

// GetClientIP resolves the caller address. Forwarding headers count only
// when the peer is one of the engine's trusted proxies.
func GetClientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	return "unknown"
}
