package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/strategykit/observability"
)

// HealthResponse is the /health body.
type HealthResponse struct {
	*observability.ServiceHealth
	Timestamp string `json:"timestamp"`
}

// Health reports the aggregated health of checkers. A down component
// answers 503; a degraded one still answers 200.
func Health(service, version string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.Check(c.Request.Context(), service, version, checkers...)

		status := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, HealthResponse{
			ServiceHealth: sh,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		})
	}
}
