package middlewares

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RateLimit throttles by authenticated user when one is known, otherwise by
// client IP. Store errors let the request through.
func RateLimit(store LimiterStore, policy LimitPolicy) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / policy.perSecond())))
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id, ok := c.Get(UserIDKey); ok {
			key = "user:" + strconv.FormatUint(uint64(id.(uint)), 10)
		}

		allowed, err := store.Allow(c.Request.Context(), key)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too Many Requests",
				"message": "Too many requests, slow down.",
			})
			return
		}
		c.Next()
	}
}
