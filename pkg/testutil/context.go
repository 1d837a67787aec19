package testutil

import (
	"crypto/sha256"
	"net/http"
	"time"

	id "parareg/pkg/domain"
	"parareg/pkg/requestcontext"
)

// IdentityFromSeed derives a deterministic identity from a label so tests can
// name their actors ("owner", "researcher-p") instead of juggling hex.
func IdentityFromSeed(seed string) id.Identity {
	return id.Identity(sha256.Sum256([]byte(seed)))
}

// WithCaller injects a caller identity into the request context, simulating
// what the auth middleware does for authenticated requests.
func WithCaller(req *http.Request, caller id.Identity) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), caller)
	return req.WithContext(ctx)
}

// WithRequestMetadata stamps the request context the way the full middleware
// chain would: request ID, client metadata, and a fixed request time.
func WithRequestMetadata(req *http.Request, requestID string, now time.Time) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	ctx = requestcontext.WithClientMetadata(ctx, "192.0.2.1", "parareg-test")
	ctx = requestcontext.WithTime(ctx, now)
	return req.WithContext(ctx)
}
