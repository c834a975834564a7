package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger logs the start and the end of every request with the "http" logger.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := zap.S().Named("http")
		start := time.Now()

		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		log.Debugw("request started", fields...)

		c.Next()

		fields = append(fields, "status", c.Writer.Status(), "latency", time.Since(start))
		if len(c.Errors) > 0 {
			log.Warnw("request finished with errors", append(fields, "errors", c.Errors.String())...)
			return
		}
		log.Infow("request finished", fields...)
	}
}
