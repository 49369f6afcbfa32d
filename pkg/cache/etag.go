package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Fingerprint returns the content validator for a manifest payload. The
// upstream-provided validator wins when present; otherwise a stable hash of
// the serialized payload, prefixed by the manifest type, is derived so the
// same content always yields the same validator.
func Fingerprint(manifestType string, payload []byte, upstreamETag string) string {
	if upstreamETag != "" {
		return upstreamETag
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf(`"%s-%s"`, manifestType, hex.EncodeToString(sum[:8]))
}

// MatchesValidator reports whether an If-None-Match header value matches the
// stored validator. Handles the wildcard form, comma-separated lists, and
// weak validators (W/ prefix), which compare equal to their strong form.
func MatchesValidator(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" || etag == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}

// ControlHeader renders the Cache-Control directive for a response:
// max-age from the TTL and a stale-while-revalidate window.
func ControlHeader(ttl, staleWindow time.Duration) string {
	return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d",
		int(ttl.Seconds()), int(staleWindow.Seconds()))
}
