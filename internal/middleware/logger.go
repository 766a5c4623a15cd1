package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger returns a middleware that logs each request. Costed routes aggregate
// by their template (route), not the raw path. Only the presence of a session
// bearer is logged, never its value.
func Logger(log *zap.Logger) gin.HandlerFunc {
	httpLog := log.Named("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		hasSession := strings.TrimSpace(c.GetHeader("Authorization")) != ""

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = path
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.Bool("session", hasSession),
			zap.Int("bytes", c.Writer.Size()),
		}

		switch {
		case status >= 500:
			httpLog.Error("request", fields...)
		case status >= 400:
			httpLog.Warn("request", fields...)
		default:
			httpLog.Info("request", fields...)
		}
	}
}
