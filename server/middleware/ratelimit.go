package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/strategykit/errors"
	"github.com/kbukum/strategykit/resilience"
)

// RateLimit rejects requests with 429 when rl has no token left. One
// bucket is shared by every caller.
func RateLimit(rl *resilience.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow() {
			appErr := apperrors.RateLimited()
			c.Header("Retry-After", strconv.Itoa(1))
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Next()
	}
}
