package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RequestLimiter bounds the rate of outbound HTTP requests. Limits can be
// tightened at runtime when the remote side starts rejecting requests.
type RequestLimiter struct {
	limiter *rate.Limiter
	mu      sync.RWMutex
}

// NewRequestLimiter creates a limiter allowing rps requests per second with the given burst
func NewRequestLimiter(rps float64, burst int) *RequestLimiter {
	return &RequestLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until a request is allowed or ctx is canceled
func (rl *RequestLimiter) Wait(ctx context.Context) error {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.limiter.Wait(ctx)
}

// Slow halves the allowed request rate, down to floor
func (rl *RequestLimiter) Slow(floor float64) float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	next := float64(rl.limiter.Limit()) / 2
	if next < floor {
		next = floor
	}
	rl.limiter.SetLimit(rate.Limit(next))
	return next
}

// Limit returns the current requests-per-second limit
func (rl *RequestLimiter) Limit() float64 {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return float64(rl.limiter.Limit())
}
