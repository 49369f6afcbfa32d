package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/McCal-Codes/mccal-api-sub001/pkg/cache"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/store"
)

const contentTypeJSON = "application/json; charset=utf-8"

// handleListManifests lists the configured manifest types.
func (s *Server) handleListManifests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": s.cfg.Registry.Types()})
}

// handleGetManifest serves one manifest through the cache tiers: edge
// response cache, then manifest store, then a live upstream fetch.
//
// State machine per key: MISS -> FETCHING -> CACHED -> STALE ->
// REVALIDATING -> CACHED, with purge returning any cached state to MISS.
// A failed refetch while stale serves the stale copy with a diagnostic
// marker instead of failing the request.
func (s *Server) handleGetManifest(c *gin.Context) {
	manifestType := c.Param("type")
	ctx := c.Request.Context()

	sourceURL, ok := s.cfg.Registry.SourceURL(manifestType)
	if !ok {
		abortWithError(c, http.StatusNotFound, kindNotFound, "unknown manifest type: "+manifestType)
		return
	}

	// Edge tier first.
	entry, status := s.cfg.Edge.Lookup(ctx, sourceURL)
	if status == cache.StatusHit {
		s.cfg.Stats.RecordHit()
		s.serveEntry(c, entry, cache.StatusHit)
		return
	}
	stale := entry // nil unless the edge copy is within its stale window

	// Manifest tier next; a fresh hit repopulates the edge tier.
	entry, status = s.cfg.Manifests.Lookup(ctx, store.ManifestKey(manifestType))
	if status == cache.StatusHit {
		s.cfg.Edge.Store(ctx, sourceURL, entry)
		s.cfg.Stats.RecordHit()
		s.serveEntry(c, entry, cache.StatusHit)
		return
	}
	if status == cache.StatusStale {
		stale = entry
	}

	// True miss or stale: revalidate against upstream.
	s.cfg.Stats.RecordMiss()
	record, err := s.cfg.Fetcher.Fetch(ctx, manifestType)
	if err != nil {
		if stale != nil {
			// Serve the stale copy rather than fail; do not purge.
			cache.StaleServed.Inc()
			s.logger.Warn().Err(err).
				Str("type", manifestType).
				Msg("Revalidation failed, serving stale manifest")
			s.serveEntry(c, stale, cache.StatusStale)
			return
		}
		abortFetchError(c, err)
		return
	}

	etag := cache.Fingerprint(record.Type, record.Payload, record.ETag)
	fresh := cache.NewEntry(record.Payload, etag, record.SourceURL, s.cfg.TTL, s.cfg.StaleWindow)
	s.cfg.Manifests.Store(ctx, store.ManifestKey(manifestType), fresh)
	s.cfg.Edge.Store(ctx, sourceURL, fresh)

	s.serveEntry(c, fresh, cache.StatusMiss)
}

// serveEntry writes a manifest response with validator, Cache-Control, and
// cache-status headers. A conditional request whose validator matches
// short-circuits to a bodyless 304.
func (s *Server) serveEntry(c *gin.Context, entry *cache.Entry, status cache.Status) {
	c.Header("ETag", entry.ETag)
	c.Header("Cache-Control", cache.ControlHeader(s.cfg.TTL, s.cfg.StaleWindow))
	c.Header("X-Cache", string(status))

	if cache.MatchesValidator(c.GetHeader("If-None-Match"), entry.ETag) {
		cache.NotModified.Inc()
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(http.StatusOK, contentTypeJSON, entry.Data)
}

// handleCacheStats reports the process-local counters since last start.
func (s *Server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Stats.Snapshot())
}

// handleHealth reports liveness plus a cache hit-rate summary.
func (s *Server) handleHealth(c *gin.Context) {
	snap := s.cfg.Stats.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
		"cache": gin.H{
			"hits":    snap.Hits,
			"misses":  snap.Misses,
			"hitRate": snap.HitRate(),
		},
	})
}
