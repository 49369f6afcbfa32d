package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/McCal-Codes/mccal-api-sub001/internal/testutil"
)

func withSecret(secret string) map[string]string {
	return map[string]string{"X-Webhook-Secret": secret}
}

func TestWebhookAuth(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ts.upstream.SetManifest("concert", `{"bands":[]}`)

	tests := []struct {
		name       string
		path       string
		headers    map[string]string
		wantStatus int
	}{
		{"no secret", "/webhooks/purge/concert", nil, http.StatusUnauthorized},
		{"wrong secret", "/webhooks/purge/concert", withSecret("nope"), http.StatusUnauthorized},
		{"header secret", "/webhooks/purge/concert", withSecret("s3cret"), http.StatusOK},
		{"query secret", "/webhooks/purge/concert?secret=s3cret", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(http.MethodPost, tt.path, tt.headers)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assertErrorBody(t, w, kindUnauthorized)
			}
		})
	}
}

func TestWebhookAuth_NoSecretConfigured(t *testing.T) {
	t.Run("production fails closed", func(t *testing.T) {
		opts := defaultOptions()
		opts.secret = ""
		opts.production = true
		ts := newTestServer(t, opts)

		w := ts.do(http.MethodPost, "/webhooks/purge/concert", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("development allows", func(t *testing.T) {
		opts := defaultOptions()
		opts.secret = ""
		ts := newTestServer(t, opts)
		ts.upstream.SetManifest("concert", `{"bands":[]}`)

		w := ts.do(http.MethodPost, "/webhooks/purge/concert", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestWebhookPurge_ForcesRefetch(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ts.upstream.SetManifest("concert", `{"bands":[]}`)

	// Populate, then confirm a hit.
	w := ts.do(http.MethodGet, "/manifests/concert", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(http.MethodGet, "/manifests/concert", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w = ts.do(http.MethodPost, "/webhooks/purge/concert", withSecret("s3cret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"operation":"purge"`)

	// Purged: next read goes back to upstream, the one after hits again.
	w = ts.do(http.MethodGet, "/manifests/concert", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	w = ts.do(http.MethodGet, "/manifests/concert", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	assert.Equal(t, 2, ts.upstream.RequestCount())
}

func TestWebhookPurge_UnknownType(t *testing.T) {
	ts := newTestServer(t, defaultOptions())

	w := ts.do(http.MethodPost, "/webhooks/purge/street", withSecret("s3cret"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assertErrorBody(t, w, kindNotFound)
}

func TestWebhookWarm_PopulatesWithoutReads(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ts.upstream.SetManifest("concert", `{"bands":["a"]}`)

	w := ts.do(http.MethodPost, "/webhooks/warm/concert", withSecret("s3cret"))
	require.Equal(t, http.StatusOK, w.Code)

	// The very first client read is already a hit.
	w = ts.do(http.MethodGet, "/manifests/concert", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"bands":["a"]}`, w.Body.String())
	assert.Equal(t, 1, ts.upstream.RequestCount())
}

func TestWebhookWarm_UpstreamFailure(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ts.upstream.SetResponse("/concert.json", testutil.NewServerErrorResponse())

	w := ts.do(http.MethodPost, "/webhooks/warm/concert", withSecret("s3cret"))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assertErrorBody(t, w, kindUpstream)
}

func TestWebhookRefresh_ReplacesCachedCopy(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ts.upstream.SetManifest("concert", `{"bands":["old"]}`)

	w := ts.do(http.MethodGet, "/manifests/concert", nil)
	require.Equal(t, http.StatusOK, w.Code)

	ts.upstream.SetManifest("concert", `{"bands":["new"]}`)

	w = ts.do(http.MethodPost, "/webhooks/refresh/concert", withSecret("s3cret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"operation":"refresh"`)

	// Clients see the new copy from cache without another upstream call.
	before := ts.upstream.RequestCount()
	w = ts.do(http.MethodGet, "/manifests/concert", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"bands":["new"]}`, w.Body.String())
	assert.Equal(t, before, ts.upstream.RequestCount())
}

func TestWebhookAllTypes(t *testing.T) {
	opts := defaultOptions()
	opts.types = []string{"concert", "festival"}
	ts := newTestServer(t, opts)
	ts.upstream.SetManifest("concert", `{"bands":[]}`)
	ts.upstream.SetManifest("festival", `{"stages":[]}`)

	w := ts.do(http.MethodPost, "/webhooks/warm", withSecret("s3cret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results"`)

	for _, typ := range opts.types {
		r := ts.do(http.MethodGet, "/manifests/"+typ, nil)
		require.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t, "HIT", r.Header().Get("X-Cache"), typ)
	}
}

func TestWebhookWarmAll_PartialFailureStillOK(t *testing.T) {
	opts := defaultOptions()
	opts.types = []string{"concert", "festival"}
	ts := newTestServer(t, opts)
	ts.upstream.SetManifest("concert", `{"bands":[]}`)
	// festival left unset: upstream 404s for it.

	w := ts.do(http.MethodPost, "/webhooks/warm", withSecret("s3cret"))
	assert.Equal(t, http.StatusOK, w.Code, "partial failure must not fail the whole operation")
	assert.Contains(t, w.Body.String(), `"ok":true`)
	assert.Contains(t, w.Body.String(), `"ok":false`)
}
