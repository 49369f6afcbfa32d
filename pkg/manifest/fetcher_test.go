package manifest

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/McCal-Codes/mccal-api-sub001/internal/testutil"
)

func newTestFetcher(t *testing.T, upstream *testutil.MockUpstream, types ...string) *Fetcher {
	t.Helper()
	registry := NewRegistry(upstream.URL(), types, nil)
	return NewFetcher(registry, 5*time.Second, zerolog.Nop())
}

func TestFetcher_Success(t *testing.T) {
	upstream := testutil.NewMockUpstream()
	defer upstream.Close()
	upstream.SetManifestWithETag("concert", `{"bands":[]}`, `"v1"`)

	f := newTestFetcher(t, upstream, "concert")

	record, err := f.Fetch(context.Background(), "concert")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if record.Type != "concert" {
		t.Errorf("Type = %q, want concert", record.Type)
	}
	if string(record.Payload) != `{"bands":[]}` {
		t.Errorf("Payload = %s, want upstream body", record.Payload)
	}
	if record.ETag != `"v1"` {
		t.Errorf("ETag = %q, want upstream validator", record.ETag)
	}
	if record.SourceURL != upstream.URL()+"/concert.json" {
		t.Errorf("SourceURL = %q, want canonical URL", record.SourceURL)
	}
	if record.FetchedAt.IsZero() {
		t.Error("FetchedAt should be stamped")
	}
}

func TestFetcher_UnknownType(t *testing.T) {
	upstream := testutil.NewMockUpstream()
	defer upstream.Close()

	f := newTestFetcher(t, upstream, "concert")

	_, err := f.Fetch(context.Background(), "nope")
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("Fetch error = %v, want ErrUnknownType", err)
	}
	if upstream.RequestCount() != 0 {
		t.Error("unknown type must not reach upstream")
	}
}

func TestFetcher_NotFound(t *testing.T) {
	upstream := testutil.NewMockUpstream()
	defer upstream.Close()
	// No handler registered: the mock answers 404.

	f := newTestFetcher(t, upstream, "concert")

	_, err := f.Fetch(context.Background(), "concert")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch error = %v, want ErrNotFound", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Fetch error = %T, want *FetchError", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", fetchErr.StatusCode)
	}
}

func TestFetcher_UpstreamError(t *testing.T) {
	upstream := testutil.NewMockUpstream()
	defer upstream.Close()
	upstream.SetResponse("/concert.json", testutil.NewServerErrorResponse())

	f := newTestFetcher(t, upstream, "concert")

	_, err := f.Fetch(context.Background(), "concert")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Fetch error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestFetcher_NetworkError(t *testing.T) {
	upstream := testutil.NewMockUpstream()
	upstream.SetManifest("concert", `{}`)
	f := newTestFetcher(t, upstream, "concert")
	upstream.Close()

	_, err := f.Fetch(context.Background(), "concert")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Fetch error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestFetcher_Timeout(t *testing.T) {
	upstream := testutil.NewMockUpstream()
	defer upstream.Close()
	upstream.SetResponse("/concert.json", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{}`,
		Delay:      200 * time.Millisecond,
	})

	registry := NewRegistry(upstream.URL(), []string{"concert"}, nil)
	f := NewFetcher(registry, 5*time.Second, zerolog.Nop())
	f.SetHTTPClient(&http.Client{Timeout: 50 * time.Millisecond})

	_, err := f.Fetch(context.Background(), "concert")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Fetch error = %v, want ErrUpstreamUnavailable on timeout", err)
	}
}

func TestFetcher_InvalidPayload(t *testing.T) {
	upstream := testutil.NewMockUpstream()
	defer upstream.Close()
	upstream.SetResponse("/concert.json", testutil.NewInvalidPayloadResponse())

	f := newTestFetcher(t, upstream, "concert")

	_, err := f.Fetch(context.Background(), "concert")
	if !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Fetch error = %v, want ErrInvalidPayload", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry("https://up.example/manifests/", []string{"concert", "portrait"}, map[string]string{
		"portrait": "people/portraits.json",
	})

	if !r.Contains("concert") || r.Contains("street") {
		t.Error("Contains gave wrong membership")
	}

	url, ok := r.SourceURL("concert")
	if !ok || url != "https://up.example/manifests/concert.json" {
		t.Errorf("SourceURL(concert) = %q, want default layout", url)
	}

	url, _ = r.SourceURL("portrait")
	if url != "https://up.example/manifests/people/portraits.json" {
		t.Errorf("SourceURL(portrait) = %q, want override applied", url)
	}

	types := r.Types()
	if len(types) != 2 || types[0] != "concert" {
		t.Errorf("Types() = %v, want configuration order", types)
	}
}

func TestRegistry_AbsoluteOverride(t *testing.T) {
	r := NewRegistry("https://up.example", []string{"concert"}, map[string]string{
		"concert": "https://other.example/c.json",
	})

	url, _ := r.SourceURL("concert")
	if url != "https://other.example/c.json" {
		t.Errorf("SourceURL = %q, want absolute override untouched", url)
	}
}
