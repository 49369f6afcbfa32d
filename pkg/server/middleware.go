package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/McCal-Codes/mccal-api-sub001/pkg/ratelimit"
)

// rateLimitMiddleware gates public read endpoints per client. Webhook
// endpoints are excluded; they carry their own secret-based gate.
func rateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// gin's ClientIP honors X-Forwarded-For ahead of the peer.
		result := limiter.Check(c.Request.Context(), c.ClientIP())

		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortWithError(c, http.StatusTooManyRequests, kindRateLimitExceeded,
				fmt.Sprintf("rate limit exceeded, retry after %ds", retryAfter))
			return
		}

		c.Next()
	}
}
