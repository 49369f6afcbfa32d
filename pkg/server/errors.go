package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/McCal-Codes/mccal-api-sub001/pkg/manifest"
)

// Error kinds shared by every non-success response body.
const (
	kindConfigError       = "ConfigError"
	kindNotFound          = "NotFoundError"
	kindUpstream          = "UpstreamError"
	kindInvalidPayload    = "InvalidPayloadError"
	kindUnauthorized      = "UnauthorizedError"
	kindRateLimitExceeded = "RateLimitExceeded"
)

// errorResponse is the single structured body shape for all non-success
// responses: error kind, human message, timestamp.
type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// abortWithError writes the shared error body and stops the handler chain.
func abortWithError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Error:     kind,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// abortFetchError maps the fetch taxonomy onto HTTP responses. Unknown
// types and upstream 404s are not-found; unavailability and unparseable
// payloads are gateway errors.
func abortFetchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, manifest.ErrUnknownType), errors.Is(err, manifest.ErrNotFound):
		abortWithError(c, http.StatusNotFound, kindNotFound, err.Error())
	case errors.Is(err, manifest.ErrInvalidPayload):
		abortWithError(c, http.StatusBadGateway, kindInvalidPayload, err.Error())
	default:
		abortWithError(c, http.StatusBadGateway, kindUpstream, err.Error())
	}
}
