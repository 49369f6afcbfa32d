// Package invalidation exposes the purge, warm, and refresh operations the
// publishing pipeline drives through authenticated webhooks. All operations
// are idempotent and manipulate both cache tiers directly.
package invalidation

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/McCal-Codes/mccal-api-sub001/pkg/cache"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/manifest"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/store"
)

// DefaultWarmConcurrency bounds the warm-all worker pool.
const DefaultWarmConcurrency = 4

// Prometheus metrics for invalidation operations.
var (
	invalidationOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mccal_invalidation_ops_total",
		Help: "Total invalidation operations by op and outcome",
	}, []string{"op", "outcome"})
)

// OpResult reports the outcome of one operation on one type.
type OpResult struct {
	Type  string `json:"type"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Controller implements purge/warm/refresh over both cache tiers.
type Controller struct {
	registry        *manifest.Registry
	fetcher         *manifest.Fetcher
	manifests       *cache.Manager
	edge            *cache.Manager
	ttl             time.Duration
	staleWindow     time.Duration
	stats           *cache.Stats
	warmConcurrency int
	logger          zerolog.Logger
}

// Config holds controller dependencies.
type Config struct {
	Registry        *manifest.Registry
	Fetcher         *manifest.Fetcher
	Manifests       *cache.Manager
	Edge            *cache.Manager
	TTL             time.Duration
	StaleWindow     time.Duration
	Stats           *cache.Stats
	WarmConcurrency int
	Logger          zerolog.Logger
}

// NewController creates an invalidation controller.
func NewController(cfg Config) *Controller {
	if cfg.Registry == nil || cfg.Fetcher == nil || cfg.Manifests == nil || cfg.Edge == nil {
		panic("registry, fetcher, and both cache managers are required")
	}
	if cfg.WarmConcurrency <= 0 {
		cfg.WarmConcurrency = DefaultWarmConcurrency
	}
	if cfg.Stats == nil {
		cfg.Stats = cache.NewStats()
	}
	return &Controller{
		registry:        cfg.Registry,
		fetcher:         cfg.Fetcher,
		manifests:       cfg.Manifests,
		edge:            cfg.Edge,
		ttl:             cfg.TTL,
		staleWindow:     cfg.StaleWindow,
		stats:           cfg.Stats,
		warmConcurrency: cfg.WarmConcurrency,
		logger:          cfg.Logger,
	}
}

// Purge deletes the cache entry for one type from both tiers. Idempotent:
// purging an already-absent entry succeeds.
func (c *Controller) Purge(ctx context.Context, manifestType string) error {
	sourceURL, ok := c.registry.SourceURL(manifestType)
	if !ok {
		invalidationOpsTotal.WithLabelValues("purge", "unknown_type").Inc()
		return &manifest.FetchError{Type: manifestType, Err: manifest.ErrUnknownType}
	}

	c.manifests.Delete(ctx, store.ManifestKey(manifestType))
	c.edge.Delete(ctx, sourceURL)
	c.stats.RecordPurge()
	invalidationOpsTotal.WithLabelValues("purge", "ok").Inc()

	c.logger.Info().Str("type", manifestType).Msg("Purged manifest from both cache tiers")
	return nil
}

// Warm forces a fetch and store for one type regardless of existing cache
// state. The stored entry fully replaces any previous one.
func (c *Controller) Warm(ctx context.Context, manifestType string) error {
	record, err := c.fetcher.Fetch(ctx, manifestType)
	if err != nil {
		invalidationOpsTotal.WithLabelValues("warm", "fetch_error").Inc()
		c.logger.Warn().Err(err).Str("type", manifestType).Msg("Warm fetch failed")
		return err
	}

	etag := cache.Fingerprint(record.Type, record.Payload, record.ETag)
	entry := cache.NewEntry(record.Payload, etag, record.SourceURL, c.ttl, c.staleWindow)

	c.manifests.Store(ctx, store.ManifestKey(record.Type), entry)
	c.edge.Store(ctx, record.SourceURL, entry)
	c.stats.RecordWarm()
	invalidationOpsTotal.WithLabelValues("warm", "ok").Inc()

	c.logger.Info().
		Str("type", manifestType).
		Str("etag", etag).
		Dur("ttl", c.ttl).
		Msg("Warmed manifest into both cache tiers")
	return nil
}

// Refresh is purge followed by warm: the canonical signal the publishing
// pipeline sends after updating source content.
func (c *Controller) Refresh(ctx context.Context, manifestType string) error {
	if err := c.Purge(ctx, manifestType); err != nil {
		return err
	}
	return c.Warm(ctx, manifestType)
}

// PurgeAll purges every configured type.
func (c *Controller) PurgeAll(ctx context.Context) []OpResult {
	results := make([]OpResult, 0, len(c.registry.Types()))
	for _, t := range c.registry.Types() {
		results = append(results, toResult(t, c.Purge(ctx, t)))
	}
	return results
}

// WarmAll warms every configured type over a bounded worker pool.
// Per-type failures are reported, not fatal.
func (c *Controller) WarmAll(ctx context.Context) []OpResult {
	return c.fanOut(ctx, c.Warm)
}

// RefreshAll refreshes every configured type over a bounded worker pool.
func (c *Controller) RefreshAll(ctx context.Context) []OpResult {
	return c.fanOut(ctx, c.Refresh)
}

// fanOut runs op for every configured type with bounded concurrency.
// Invalidation across types is independent; no cross-type coordination.
func (c *Controller) fanOut(ctx context.Context, op func(context.Context, string) error) []OpResult {
	types := c.registry.Types()

	jobs := make(chan string, len(types))
	results := make(chan OpResult, len(types))

	workers := c.warmConcurrency
	if workers > len(types) {
		workers = len(types)
	}

	for w := 0; w < workers; w++ {
		go func() {
			for t := range jobs {
				results <- toResult(t, op(ctx, t))
			}
		}()
	}

	for _, t := range types {
		jobs <- t
	}
	close(jobs)

	collected := make([]OpResult, 0, len(types))
	for range types {
		collected = append(collected, <-results)
	}
	return collected
}

func toResult(manifestType string, err error) OpResult {
	if err != nil {
		return OpResult{Type: manifestType, Error: err.Error()}
	}
	return OpResult{Type: manifestType, OK: true}
}
