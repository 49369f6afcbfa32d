// Package server wires the HTTP surface: manifest reads behind the CORS
// gatekeeper and rate limiter, webhook-driven invalidation behind the
// shared secret, and the stats/health/metrics endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/McCal-Codes/mccal-api-sub001/pkg/cache"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/cors"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/invalidation"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/manifest"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/ratelimit"
)

// Config holds server dependencies and tunables.
type Config struct {
	Registry   *manifest.Registry
	Fetcher    *manifest.Fetcher
	Manifests  *cache.Manager
	Edge       *cache.Manager
	Controller *invalidation.Controller
	Limiter    *ratelimit.Limiter
	Allowlist  *cors.Allowlist
	Stats      *cache.Stats

	TTL         time.Duration
	StaleWindow time.Duration

	// WebhookSecret guards the invalidation endpoints. When empty the
	// endpoints refuse requests in production and permit them otherwise.
	WebhookSecret string
	Production    bool

	Logger zerolog.Logger
}

// Server is the manifest HTTP server.
type Server struct {
	cfg        Config
	router     *gin.Engine
	httpServer *http.Server
	logger     zerolog.Logger
}

// New creates the server and registers all routes.
func New(cfg Config) *Server {
	if cfg.Registry == nil || cfg.Fetcher == nil || cfg.Manifests == nil ||
		cfg.Edge == nil || cfg.Controller == nil || cfg.Limiter == nil {
		panic("server config is missing required dependencies")
	}
	if cfg.Allowlist == nil {
		cfg.Allowlist = cors.ParseAllowlist(nil)
	}
	if cfg.Stats == nil {
		cfg.Stats = cache.NewStats()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Middleware(cfg.Allowlist))

	s := &Server{
		cfg:    cfg,
		router: router,
		logger: cfg.Logger,
	}
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	// Public read endpoints: rate limited.
	reads := s.router.Group("/", rateLimitMiddleware(s.cfg.Limiter))
	reads.GET("/manifests", s.handleListManifests)
	reads.GET("/manifests/:type", s.handleGetManifest)

	// Webhooks: secret gated, never rate limited.
	webhooks := s.router.Group("/webhooks", s.webhookAuth())
	webhooks.POST("/purge", s.handlePurgeAll)
	webhooks.POST("/purge/:type", s.handlePurge)
	webhooks.POST("/warm", s.handleWarmAll)
	webhooks.POST("/warm/:type", s.handleWarm)
	webhooks.POST("/refresh", s.handleRefreshAll)
	webhooks.POST("/refresh/:type", s.handleRefresh)

	// Observability.
	s.router.GET("/cache/stats", s.handleCacheStats)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler returns the underlying http.Handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on addr and blocks until it stops.
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info().Str("addr", addr).Msg("Manifest server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info().Msg("Shutting down manifest server")
	return s.httpServer.Shutdown(ctx)
}
