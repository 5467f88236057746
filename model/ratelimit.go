package model

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Model and throttles Generate calls with a token bucket.
type RateLimited struct {
	next    Model
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls per second with the given burst.
// A non-positive perSecond disables throttling.
func NewRateLimited(next Model, perSecond float64, burst int) *RateLimited {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Generate waits for a token, then delegates to the wrapped model.
func (r *RateLimited) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	if err := r.limiter.Wait(ctx); err != nil {
		respCh := make(chan Response)
		errCh := make(chan error, 1)
		close(respCh)
		errCh <- err
		close(errCh)
		return respCh, errCh
	}
	return r.next.Generate(ctx, req)
}

// Info reports the wrapped model's metadata.
func (r *RateLimited) Info() Info { return r.next.Info() }
