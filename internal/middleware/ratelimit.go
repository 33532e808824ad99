package middleware

import (
	"net/http" // HTTP status codes
	"strconv"  // Header formatting
	"time"     // Window durations

	"wallet_ledger/internal/response" // Response envelope

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// RateLimitExceededMessage is returned with 429 responses
const RateLimitExceededMessage = "too many requests... slow down"

// RateLimitConfig bounds requests per client IP
type RateLimitConfig struct {
	Limit  int           // Requests allowed per window
	Window time.Duration // Counting window
	Block  time.Duration // Lockout after the limit is exceeded
}

// RateLimiter counts requests per client IP in fixed Redis windows. A client
// exceeding Limit is blocked for Block. Redis failures let requests through.
func RateLimiter(rdb redis.Cmdable, cfg RateLimitConfig, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context() // Request scoped context
		ip := c.ClientIP()         // Client identity
		blockKey := "ratelimit:block:" + ip
		countKey := "ratelimit:count:" + ip

		// Reject clients still serving a lockout
		ttl, err := rdb.PTTL(ctx, blockKey).Result()
		if err != nil {
			log.WithError(err).WithField("client_ip", ip).Warn("rate limiter unavailable")
			c.Next() // Fail open
			return
		}
		if ttl > 0 {
			reject(c, ttl)
			return
		}

		// Count this request in the current window
		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, countKey)
		pipe.ExpireNX(ctx, countKey, cfg.Window) // Window starts at the first request
		if _, err := pipe.Exec(ctx); err != nil {
			log.WithError(err).WithField("client_ip", ip).Warn("rate limiter unavailable")
			c.Next() // Fail open
			return
		}

		if incr.Val() > int64(cfg.Limit) {
			if err := rdb.Set(ctx, blockKey, 1, cfg.Block).Err(); err != nil {
				log.WithError(err).WithField("client_ip", ip).Warn("failed to record rate limit block")
			}
			log.WithFields(logrus.Fields{
				"client_ip": ip,         // Client identity
				"count":     incr.Val(), // Requests in window
				"limit":     cfg.Limit,  // Configured limit
			}).Warn("rate limit exceeded")
			reject(c, cfg.Block)
			return
		}
		c.Next() // Within limits
	}
}

func reject(c *gin.Context, retryAfter time.Duration) {
	secs := int((retryAfter + time.Second - 1) / time.Second) // Round up to whole seconds
	c.Header("Retry-After", strconv.Itoa(secs))
	response.AbortWithError(c, http.StatusTooManyRequests, RateLimitExceededMessage, "RATE_LIMITED")
}
