package backend

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Client with a token-bucket limiter so a shared cloud
// backend is not hammered by bursts of pipeline invocations. Waiting respects
// the caller's context, so cancellation propagates through the limiter.
type RateLimited struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimited wraps client with a requests-per-second limit. A
// non-positive limit returns the client unwrapped.
func NewRateLimited(client Client, perSecond float64, burst int) Client {
	if perSecond <= 0 {
		return client
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		inner:   client,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (r *RateLimited) Name() string { return r.inner.Name() }

func (r *RateLimited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.inner.Complete(ctx, prompt)
}

func (r *RateLimited) CompleteStream(ctx context.Context, prompt string) (<-chan Fragment, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.inner.CompleteStream(ctx, prompt)
}

func (r *RateLimited) Available(ctx context.Context) bool {
	return r.inner.Available(ctx)
}
