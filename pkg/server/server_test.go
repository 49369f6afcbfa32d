package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/McCal-Codes/mccal-api-sub001/internal/testutil"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/cache"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/cors"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/invalidation"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/manifest"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/ratelimit"
	"github.com/McCal-Codes/mccal-api-sub001/pkg/store"
)

type testServer struct {
	server   *Server
	upstream *testutil.MockUpstream
	stats    *cache.Stats
}

type testOptions struct {
	types            []string
	secret           string
	production       bool
	rateLimitCeiling int
	rateLimitWindow  time.Duration
	allowedOrigins   []string
	ttl              time.Duration
	staleWindow      time.Duration
}

func defaultOptions() testOptions {
	return testOptions{
		types:            []string{"concert"},
		secret:           "s3cret",
		rateLimitCeiling: 1000,
		rateLimitWindow:  time.Minute,
		allowedOrigins:   []string{"*.example.com"},
		ttl:              time.Minute,
		staleWindow:      time.Hour,
	}
}

func newTestServer(t *testing.T, opts testOptions) *testServer {
	t.Helper()

	upstream := testutil.NewMockUpstream()
	t.Cleanup(upstream.Close)

	registry := manifest.NewRegistry(upstream.URL(), opts.types, nil)
	fetcher := manifest.NewFetcher(registry, 5*time.Second, zerolog.Nop())
	manifests := cache.NewManager(store.NewMemoryStore(), "store", zerolog.Nop())
	edge := cache.NewManager(store.NewMemoryStore(), "edge", zerolog.Nop())
	stats := cache.NewStats()

	controller := invalidation.NewController(invalidation.Config{
		Registry:    registry,
		Fetcher:     fetcher,
		Manifests:   manifests,
		Edge:        edge,
		TTL:         opts.ttl,
		StaleWindow: opts.staleWindow,
		Stats:       stats,
		Logger:      zerolog.Nop(),
	})

	limiter := ratelimit.NewLimiter(store.NewMemoryStore(), opts.rateLimitCeiling, opts.rateLimitWindow, zerolog.Nop())

	srv := New(Config{
		Registry:      registry,
		Fetcher:       fetcher,
		Manifests:     manifests,
		Edge:          edge,
		Controller:    controller,
		Limiter:       limiter,
		Allowlist:     cors.ParseAllowlist(opts.allowedOrigins),
		Stats:         stats,
		TTL:           opts.ttl,
		StaleWindow:   opts.staleWindow,
		WebhookSecret: opts.secret,
		Production:    opts.production,
		Logger:        zerolog.Nop(),
	})

	return &testServer{server: srv, upstream: upstream, stats: stats}
}

func (ts *testServer) do(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	return w
}

func TestListManifests(t *testing.T) {
	ts := newTestServer(t, defaultOptions())

	w := ts.do(http.MethodGet, "/manifests", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Types []string `json:"types"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"concert"}, body.Types)
}

func TestGetManifest_MissThenHit(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ts.upstream.SetManifest("concert", `{"bands":[]}`)

	// First request: live fetch.
	w1 := ts.do(http.MethodGet, "/manifests/concert", nil)
	require.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "MISS", w1.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"bands":[]}`, w1.Body.String())
	assert.NotEmpty(t, w1.Header().Get("ETag"))
	assert.Contains(t, w1.Header().Get("Cache-Control"), "max-age=60")
	assert.Contains(t, w1.Header().Get("Content-Type"), "application/json")

	// Second identical request within TTL: cache hit, same fingerprint.
	w2 := ts.do(http.MethodGet, "/manifests/concert", nil)
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "HIT", w2.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"bands":[]}`, w2.Body.String())
	assert.Equal(t, w1.Header().Get("ETag"), w2.Header().Get("ETag"))

	assert.Equal(t, 1, ts.upstream.RequestCount(), "second request must not reach upstream")
}

func TestGetManifest_ConditionalNotModified(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ts.upstream.SetManifest("concert", `{"bands":[]}`)

	w1 := ts.do(http.MethodGet, "/manifests/concert", nil)
	etag := w1.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w2 := ts.do(http.MethodGet, "/manifests/concert", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w2.Code)
	assert.Empty(t, w2.Body.String(), "304 must be bodyless")
	assert.Equal(t, etag, w2.Header().Get("ETag"))
}

func TestGetManifest_UnknownType(t *testing.T) {
	ts := newTestServer(t, defaultOptions())

	w := ts.do(http.MethodGet, "/manifests/street", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assertErrorBody(t, w, kindNotFound)
}

func TestGetManifest_UpstreamNotFound(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	// Type configured, upstream 404s.

	w := ts.do(http.MethodGet, "/manifests/concert", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assertErrorBody(t, w, kindNotFound)
}

func TestGetManifest_UpstreamErrorNoCache(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ts.upstream.SetResponse("/concert.json", testutil.NewServerErrorResponse())

	w := ts.do(http.MethodGet, "/manifests/concert", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assertErrorBody(t, w, kindUpstream)
}

func TestGetManifest_InvalidPayloadNeverCached(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ts.upstream.SetResponse("/concert.json", testutil.NewInvalidPayloadResponse())

	w := ts.do(http.MethodGet, "/manifests/concert", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assertErrorBody(t, w, kindInvalidPayload)

	// The broken document must not have entered any tier.
	ts.upstream.SetManifest("concert", `{"bands":[]}`)
	w2 := ts.do(http.MethodGet, "/manifests/concert", nil)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "MISS", w2.Header().Get("X-Cache"))
}

func TestGetManifest_StaleServedOnFailedRevalidation(t *testing.T) {
	opts := defaultOptions()
	opts.ttl = 30 * time.Millisecond
	opts.staleWindow = time.Hour
	ts := newTestServer(t, opts)
	ts.upstream.SetManifest("concert", `{"bands":["x"]}`)

	w1 := ts.do(http.MethodGet, "/manifests/concert", nil)
	require.Equal(t, http.StatusOK, w1.Code)

	// Entry goes stale, then upstream starts failing.
	time.Sleep(60 * time.Millisecond)
	ts.upstream.SetResponse("/concert.json", testutil.NewServerErrorResponse())

	w2 := ts.do(http.MethodGet, "/manifests/concert", nil)
	require.Equal(t, http.StatusOK, w2.Code, "stale copy must be served, not an error")
	assert.Equal(t, "STALE", w2.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"bands":["x"]}`, w2.Body.String())

	// Upstream recovers: the next read revalidates to fresh content.
	ts.upstream.SetManifest("concert", `{"bands":["x","y"]}`)
	w3 := ts.do(http.MethodGet, "/manifests/concert", nil)
	require.Equal(t, http.StatusOK, w3.Code)
	assert.Equal(t, "MISS", w3.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"bands":["x","y"]}`, w3.Body.String())
}

func TestCacheStatsAndHealth(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ts.upstream.SetManifest("concert", `{"bands":[]}`)

	ts.do(http.MethodGet, "/manifests/concert", nil)
	ts.do(http.MethodGet, "/manifests/concert", nil)

	w := ts.do(http.MethodGet, "/cache/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap cache.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, uint64(1), snap.Hits)
	assert.Equal(t, uint64(1), snap.Misses)

	h := ts.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, h.Code)
	assert.Contains(t, h.Body.String(), `"status":"ok"`)
	assert.Contains(t, h.Body.String(), `"hitRate":0.5`)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultOptions())

	w := ts.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mccal_")
}

func assertErrorBody(t *testing.T, w *httptest.ResponseRecorder, kind string) {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, kind, body.Error)
	assert.NotEmpty(t, body.Message)
	assert.False(t, body.Timestamp.IsZero())
}
