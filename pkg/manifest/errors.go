package manifest

import (
	"errors"
	"fmt"
)

// Sentinel errors for the upstream fetch taxonomy.
var (
	// ErrUnknownType is returned for a type not present in the registry.
	ErrUnknownType = errors.New("unknown manifest type")

	// ErrNotFound is returned when the canonical source answers 404.
	// Not retried.
	ErrNotFound = errors.New("manifest not found upstream")

	// ErrUpstreamUnavailable is returned on network failure, timeout, or
	// a non-success upstream status. Retryable by the caller, never
	// retried automatically.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrInvalidPayload is returned when the document does not parse as
	// structured data. Never cached.
	ErrInvalidPayload = errors.New("invalid manifest payload")
)

// FetchError carries context for a failed upstream fetch.
type FetchError struct {
	Type       string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch manifest %q (status %d): %v", e.Type, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch manifest %q: %v", e.Type, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}
