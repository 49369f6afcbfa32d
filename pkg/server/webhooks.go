package server

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/McCal-Codes/mccal-api-sub001/pkg/invalidation"
)

// webhookAuth gates the invalidation endpoints on the shared secret,
// presented via the X-Webhook-Secret header or the secret query parameter.
//
// With no secret configured the gate fails closed in production; the
// explicit opt-out exists only for local development.
func (s *Server) webhookAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.WebhookSecret == "" {
			if s.cfg.Production {
				s.logger.Error().Msg("Webhook rejected: no secret configured in production")
				abortWithError(c, http.StatusUnauthorized, kindUnauthorized,
					"webhook secret not configured")
				return
			}
			c.Next()
			return
		}

		presented := c.GetHeader("X-Webhook-Secret")
		if presented == "" {
			presented = c.Query("secret")
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(s.cfg.WebhookSecret)) != 1 {
			s.logger.Warn().Str("client", c.ClientIP()).Msg("Webhook secret mismatch")
			abortWithError(c, http.StatusUnauthorized, kindUnauthorized, "invalid webhook secret")
			return
		}

		c.Next()
	}
}

func (s *Server) handlePurge(c *gin.Context) {
	s.runTypedOp(c, "purge", s.cfg.Controller.Purge)
}

func (s *Server) handleWarm(c *gin.Context) {
	s.runTypedOp(c, "warm", s.cfg.Controller.Warm)
}

func (s *Server) handleRefresh(c *gin.Context) {
	s.runTypedOp(c, "refresh", s.cfg.Controller.Refresh)
}

func (s *Server) handlePurgeAll(c *gin.Context) {
	s.respondAll(c, "purge", s.cfg.Controller.PurgeAll(c.Request.Context()))
}

func (s *Server) handleWarmAll(c *gin.Context) {
	s.respondAll(c, "warm", s.cfg.Controller.WarmAll(c.Request.Context()))
}

func (s *Server) handleRefreshAll(c *gin.Context) {
	s.respondAll(c, "refresh", s.cfg.Controller.RefreshAll(c.Request.Context()))
}

// runTypedOp executes a single-type invalidation operation and maps its
// error onto the shared response shape.
func (s *Server) runTypedOp(c *gin.Context, op string, fn func(context.Context, string) error) {
	manifestType := c.Param("type")

	if err := fn(c.Request.Context(), manifestType); err != nil {
		abortFetchError(c, err)
		return
	}

	s.logger.Info().Str("op", op).Str("type", manifestType).Msg("Webhook operation completed")
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"operation": op,
		"type":      manifestType,
	})
}

// respondAll reports per-type results for an all-types operation.
func (s *Server) respondAll(c *gin.Context, op string, results []invalidation.OpResult) {
	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}

	s.logger.Info().Str("op", op).Int("types", len(results)).Int("failed", failed).
		Msg("Webhook all-types operation completed")

	status := http.StatusOK
	if failed == len(results) && failed > 0 {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"status":    "ok",
		"operation": op,
		"results":   results,
	})
}
