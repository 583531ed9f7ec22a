package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docsummary-backend/internal/shared/metrics"
	"docsummary-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request and counts it in metrics.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()

		metrics.ObserveHTTPRequest(c.Request.Method, route, status)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       route,
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if username := UsernameFromContext(c); username != "" {
			fields["username"] = username
		}
		if n, ok := c.Get(fileCountKey); ok {
			fields["file_count"] = n
		}
		telemetry.Info("request.complete", fields)
	}
}
