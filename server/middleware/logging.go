package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/observability"
)

// RequestLogger logs every request with method, route, status and
// duration, and records it in m when m is not nil. Health, metrics and
// version endpoints are counted but not logged.
func RequestLogger(log *logger.Logger, m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.RecordRequest(c.Request.Context(), route, c.Request.Method, status, duration)

		if isInfraRoute(c.Request.URL.Path) {
			return
		}
		fields := logger.Fields(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			logger.FieldDuration, duration.Milliseconds(),
			logger.FieldRequestID, GetRequestID(c),
		)
		if len(c.Errors) > 0 {
			fields[logger.FieldError] = c.Errors.Last().Error()
		}
		if duration > 500*time.Millisecond {
			fields["slow"] = true
		}
		logByStatus(log, fields, status)
	}
}

func isInfraRoute(path string) bool {
	switch path {
	case "/health", "/metrics", "/version":
		return true
	}
	return false
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("request completed", fields)
	case status >= 400:
		log.Warn("request completed", fields)
	default:
		log.Debug("request completed", fields)
	}
}
