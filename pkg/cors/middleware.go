package cors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware applies the gatekeeper to every route. Allowed origins are
// echoed back verbatim with credentials enabled; a bare wildcard is never
// used in that mode. Preflight requests are always answered with a generic
// 204 that leaks nothing about the allow-list.
func Middleware(allowlist *Allowlist) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" && allowlist.Match(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match, X-Webhook-Secret")
			h.Set("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
