// README: Request logging middleware backed by slog.
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if guild := c.Param("guild_id"); guild != "" {
			attrs = append(attrs, "guild_id", guild)
		}
		if caller, ok := CallerFrom(c); ok {
			attrs = append(attrs, "uid", caller.UID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
			logger.Error("request failed", attrs...)
			return
		}
		logger.Info("request", attrs...)
	}
}
