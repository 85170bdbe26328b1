package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer throttles outgoing requests to stay under the vendor quota before
// the server ever answers 429. It wraps a token-bucket limiter sized to the
// configured window.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing requestsPerWindow requests per window,
// with a small burst so short crawls are not needlessly spread out.
func NewPacer(requestsPerWindow int, window time.Duration) *Pacer {
	if requestsPerWindow <= 0 {
		requestsPerWindow = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	interval := rate.Every(window / time.Duration(requestsPerWindow))
	burst := requestsPerWindow / 10
	if burst < 1 {
		burst = 1
	}

	return &Pacer{limiter: rate.NewLimiter(interval, burst)}
}

// Wait blocks until the pacer allows another request or ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed immediately.
func (p *Pacer) Allow() bool {
	return p.limiter.Allow()
}
