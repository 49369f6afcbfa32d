// Package manifest defines manifest records, the static type registry, and
// the upstream fetcher.
package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Record is a manifest document fetched from upstream. Identity is Type.
type Record struct {
	// Type is the unique manifest type name.
	Type string `json:"type"`

	// Payload is the structured manifest document.
	Payload json.RawMessage `json:"payload"`

	// FetchedAt is when the document was retrieved.
	FetchedAt time.Time `json:"fetchedAt"`

	// ETag is the upstream validator, empty when the source sent none.
	ETag string `json:"etag"`

	// SourceURL is the canonical upstream URL.
	SourceURL string `json:"sourceUrl"`
}

// Registry maps configured manifest types to their canonical upstream URLs.
// The mapping is static configuration, built once at startup.
type Registry struct {
	types []string
	urls  map[string]string
}

// NewRegistry builds a registry from the upstream base URL and type list.
// By default a type maps to "<base>/<type>.json"; overrides may substitute
// a relative path or an absolute URL per type.
func NewRegistry(baseURL string, types []string, overrides map[string]string) *Registry {
	base := strings.TrimRight(baseURL, "/")
	urls := make(map[string]string, len(types))

	for _, t := range types {
		if override, ok := overrides[t]; ok {
			if strings.HasPrefix(override, "http://") || strings.HasPrefix(override, "https://") {
				urls[t] = override
			} else {
				urls[t] = base + "/" + strings.TrimLeft(override, "/")
			}
			continue
		}
		urls[t] = fmt.Sprintf("%s/%s.json", base, t)
	}

	return &Registry{
		types: append([]string(nil), types...),
		urls:  urls,
	}
}

// Types returns the configured manifest types in configuration order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.types...)
}

// Contains reports whether manifestType is configured.
func (r *Registry) Contains(manifestType string) bool {
	_, ok := r.urls[manifestType]
	return ok
}

// SourceURL returns the canonical upstream URL for a type.
func (r *Registry) SourceURL(manifestType string) (string, bool) {
	url, ok := r.urls[manifestType]
	return url, ok
}
