package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

// RequestLogger logs HTTP requests through the structured logger.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		statusCode := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", statusCode,
			"client_ip", c.ClientIP(),
			"request_id", c.Request.Header.Get("X-Request-ID"),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case statusCode >= 500:
			log.Error("request", fields...)
		case statusCode >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
