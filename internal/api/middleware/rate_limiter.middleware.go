package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tripsentry/tripsentry-core/internal/counterstore"
)

// RateLimiter enforces a per-client sliding-window request cap, reusing the
// same counter store primitives the alert engine runs on. Clients are keyed
// by IP; the window is one minute.
func RateLimiter(store counterstore.CounterStore, perMinute int) gin.HandlerFunc {
	const window = time.Minute
	if perMinute <= 0 {
		perMinute = 1000
	}

	return func(c *gin.Context) {
		key := "ratelimit:http:" + c.ClientIP()

		current, err := store.CountWindow(c.Request.Context(), key, window)
		if err != nil {
			// Fail open: the store layer already logged the problem.
			c.Next()
			return
		}

		if current >= perMinute {
			c.Header("X-Rate-Limit-Limit", strconv.Itoa(perMinute))
			c.Header("X-Rate-Limit-Remaining", "0")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":      "error",
				"error":       "rate limit exceeded",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		_ = store.IncrementWindow(c.Request.Context(), key, window)

		c.Header("X-Rate-Limit-Limit", strconv.Itoa(perMinute))
		c.Header("X-Rate-Limit-Remaining", strconv.Itoa(perMinute-current-1))

		c.Next()
	}
}
