// Command manifest-server runs the manifest caching service: a read-through
// HTTP cache in front of published manifest documents, with webhook-driven
// invalidation and Prometheus observability.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/McCal-Codes/mccal-api-sub001/pkg/cache"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/config"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/cors"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/invalidation"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/logging"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/manifest"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/ratelimit"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/server"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "manifest-server",
		Short: "Manifest caching service",
		Long: `manifest-server serves published manifest documents through a
two-tier cache (edge response cache plus a persistent key-value store),
revalidating against the upstream origin with stale-while-revalidate
semantics. The publishing pipeline drives invalidation through
authenticated purge/warm/refresh webhooks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
	})
	logger := logging.NewLogger("manifest-server")

	// Persistent tier is optional: with no Redis address the in-process
	// store serves alone and the service stays fully functional.
	manifestStore, limiterStore, closeRedis := buildStores(cfg, logger)
	defer closeRedis()

	registry := manifest.NewRegistry(cfg.UpstreamBaseURL, cfg.ManifestTypes, cfg.ManifestPaths)
	fetcher := manifest.NewFetcher(registry, cfg.FetchTimeout, logging.NewLogger("fetcher"))

	manifests := cache.NewManager(manifestStore, "store", logging.NewLogger("cache"))
	edge := cache.NewManager(store.NewMemoryStore(), "edge", logging.NewLogger("edge"))
	stats := cache.NewStats()

	controller := invalidation.NewController(invalidation.Config{
		Registry:    registry,
		Fetcher:     fetcher,
		Manifests:   manifests,
		Edge:        edge,
		TTL:         cfg.CacheTTL,
		StaleWindow: cfg.StaleWindow,
		Stats:       stats,
		Logger:      logging.NewLogger("invalidation"),
	})

	limiter := ratelimit.NewLimiter(limiterStore, cfg.RateLimitCeiling, cfg.RateLimitWindow,
		logging.NewLogger("ratelimit"))

	srv := server.New(server.Config{
		Registry:      registry,
		Fetcher:       fetcher,
		Manifests:     manifests,
		Edge:          edge,
		Controller:    controller,
		Limiter:       limiter,
		Allowlist:     cors.ParseAllowlist(cfg.AllowedOrigins),
		Stats:         stats,
		TTL:           cfg.CacheTTL,
		StaleWindow:   cfg.StaleWindow,
		WebhookSecret: cfg.WebhookSecret,
		Production:    cfg.IsProduction(),
		Logger:        logging.NewLogger("server"),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(":" + cfg.Port)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildStores assembles the manifest and rate-limit stores. With Redis
// configured both concerns share the client, with the manifest tier backed
// by a memory fallback so a Redis outage degrades instead of failing.
func buildStores(cfg *config.Config, logger zerolog.Logger) (store.Store, store.Store, func()) {
	memory := store.NewMemoryStore()

	if cfg.RedisAddr == "" {
		logger.Info().Msg("No Redis address configured, using in-process store only")
		return memory, store.NewMemoryStore(), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// Startup proceeds; the fallback tier covers until Redis returns.
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).
			Msg("Redis unreachable at startup, continuing in degraded mode")
	} else {
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
	}

	redisStore := store.NewRedisStore(client, logging.NewLogger("redis-store"))
	manifestStore := store.NewFallback(redisStore, memory, logging.NewLogger("store"))

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("Closing Redis client failed")
		}
	}
	return manifestStore, redisStore, closeFn
}
