package api

import (
	"context"  // Check deadline
	"net/http" // HTTP status codes
	"time"     // Check timeout

	"wallet_ledger/internal/response" // Response envelope

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

const healthTimeout = 2 * time.Second

// HealthHandler reports database and redis reachability
func HealthHandler(db *gorm.DB, rdb redis.Cmdable, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		checks := gin.H{"database": "up", "redis": "up"} // Optimistic until checked
		healthy := true

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			log.WithError(err).Warn("database health check failed")
			checks["database"] = "down"
			healthy = false
		}

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis health check failed")
			checks["redis"] = "down"
			healthy = false
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Success: false,
				Message: "service unavailable",
				Data:    checks,
				Error:   "UNHEALTHY",
			})
			return
		}
		response.WriteSuccess(c, http.StatusOK, "ok", checks)
	}
}
