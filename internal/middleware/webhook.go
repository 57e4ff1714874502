package middleware

import (
	"coursehub_backend/internal/config"
	"coursehub_backend/internal/util"
	"crypto/subtle"

	"github.com/gin-gonic/gin"
)

// WebhookAuthMiddleware gates payment webhook routes on the shared
// secret carried in the X-Webhook-Secret header.
func WebhookAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Webhook-Secret")
		if cfg.Webhook.Secret == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.Webhook.Secret)) != 1 {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
