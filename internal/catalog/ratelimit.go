package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedGetter spaces requests to the course API so a large wishlist
// cannot burst past the upstream's quota. Waiting honours ctx, so a batch
// canceled after a sibling failure stops queueing at once.
type RateLimitedGetter struct {
	next    HTTPGetter
	limiter *rate.Limiter
}

// NewRateLimitedGetter wraps next with a token bucket of rps requests per
// second and the given burst. rps <= 0 returns next unchanged.
func NewRateLimitedGetter(next HTTPGetter, rps float64, burst int) HTTPGetter {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedGetter{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Get waits for a token, then delegates.
func (g *RateLimitedGetter) Get(ctx context.Context, url string) (*http.Response, error) {
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("course api rate limit: %w", err)
	}
	rateLimitWait.Observe(time.Since(start).Seconds())
	return g.next.Get(ctx, url)
}
