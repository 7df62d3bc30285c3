package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logging"
)

// Pinger is the database health probe.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheck returns the health status of the API
func HealthCheck(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.HealthCheck(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "up"})
	}
}
