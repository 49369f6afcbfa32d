package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultFetchTimeout bounds a single upstream fetch.
const DefaultFetchTimeout = 10 * time.Second

// Prometheus metrics for upstream fetches.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mccal_upstream_requests_total",
		Help: "Total upstream fetches by manifest type and outcome",
	}, []string{"type", "outcome"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mccal_upstream_request_duration_seconds",
		Help:    "Upstream fetch duration in seconds by manifest type",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"type"})
)

// Fetcher retrieves manifest documents from their canonical source.
// Pure read: a fetch has no side effects on any cache tier, and failures
// are never retried here (the caller decides).
type Fetcher struct {
	httpClient *http.Client
	registry   *Registry
	userAgent  string
	logger     zerolog.Logger
}

// NewFetcher creates an upstream fetcher. A non-positive timeout falls back
// to DefaultFetchTimeout.
func NewFetcher(registry *Registry, timeout time.Duration, logger zerolog.Logger) *Fetcher {
	if registry == nil {
		panic("registry cannot be nil")
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		registry:   registry,
		userAgent:  "mccal-api/1.0",
		logger:     logger,
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}

// Fetch retrieves the manifest document for a type.
//
// Errors map to the taxonomy: ErrUnknownType for an unregistered type,
// ErrNotFound for an upstream 404, ErrUpstreamUnavailable for network
// failures, timeouts, and non-success statuses, ErrInvalidPayload for a
// document that fails to parse.
func (f *Fetcher) Fetch(ctx context.Context, manifestType string) (*Record, error) {
	sourceURL, ok := f.registry.SourceURL(manifestType)
	if !ok {
		return nil, &FetchError{Type: manifestType, Err: ErrUnknownType}
	}

	start := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(manifestType).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		upstreamRequestsTotal.WithLabelValues(manifestType, "network_error").Inc()
		f.logger.Warn().Err(err).Str("type", manifestType).Str("url", sourceURL).Msg("Upstream fetch failed")
		return nil, &FetchError{Type: manifestType, Err: fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		upstreamRequestsTotal.WithLabelValues(manifestType, "not_found").Inc()
		return nil, &FetchError{Type: manifestType, StatusCode: resp.StatusCode, Err: ErrNotFound}
	case resp.StatusCode != http.StatusOK:
		upstreamRequestsTotal.WithLabelValues(manifestType, "upstream_error").Inc()
		f.logger.Warn().Str("type", manifestType).Int("status", resp.StatusCode).Msg("Upstream returned non-success status")
		return nil, &FetchError{Type: manifestType, StatusCode: resp.StatusCode, Err: ErrUpstreamUnavailable}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		upstreamRequestsTotal.WithLabelValues(manifestType, "network_error").Inc()
		return nil, &FetchError{Type: manifestType, Err: fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)}
	}

	var payload json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		upstreamRequestsTotal.WithLabelValues(manifestType, "invalid_payload").Inc()
		f.logger.Warn().Err(err).Str("type", manifestType).Msg("Upstream payload failed to parse")
		return nil, &FetchError{Type: manifestType, Err: fmt.Errorf("%w: %v", ErrInvalidPayload, err)}
	}

	upstreamRequestsTotal.WithLabelValues(manifestType, "ok").Inc()
	f.logger.Debug().
		Str("type", manifestType).
		Dur("duration", time.Since(start)).
		Msg("Fetched manifest from upstream")

	return &Record{
		Type:      manifestType,
		Payload:   payload,
		FetchedAt: time.Now(),
		ETag:      resp.Header.Get("ETag"),
		SourceURL: sourceURL,
	}, nil
}
