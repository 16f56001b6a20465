package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics serves the Prometheus exposition from exposition. When metrics
// are exported another way it is nil and a small runtime summary is
// served instead.
func Metrics(exposition http.Handler) gin.HandlerFunc {
	if exposition != nil {
		return gin.WrapH(exposition)
	}
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, gin.H{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb": m.Alloc / 1024 / 1024,
				"sys_mb":   m.Sys / 1024 / 1024,
				"gc_runs":  m.NumGC,
			},
		})
	}
}
