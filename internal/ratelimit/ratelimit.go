// Package ratelimit wraps golang.org/x/time/rate to give the venue
// adapters a per-venue token bucket sized in requests per minute,
// grounded on the teacher's hand-rolled
// providers/kraken.RateLimiter but built on the ecosystem limiter rather
// than reimplementing token refill math.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket that refills at requestsPerMinute/60 tokens
// per second and holds at most requestsPerMinute tokens. It is not an
// exact sliding 60-second window: a caller that drains a full bucket can
// start up to about twice requestsPerMinute requests within one
// 60-second span. When the bucket is empty, Wait suspends the caller
// until the next token refills.
type Limiter struct {
	inner *rate.Limiter
}

// New builds a Limiter sized for requestsPerMinute requests per minute,
// with burst equal to the full per-minute budget (a caller may front-load
// the whole window's allotment, matching a token bucket that starts
// full).
func New(requestsPerMinute int) *Limiter {
	perSecond := rate.Limit(float64(requestsPerMinute) / 60.0)
	return &Limiter{inner: rate.NewLimiter(perSecond, requestsPerMinute)}
}

// Wait blocks until a token is available or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}

// Allow attempts to acquire a token without blocking.
func (l *Limiter) Allow() bool {
	return l.inner.Allow()
}

// Tokens reports the current (possibly fractional) number of available
// tokens, useful for health/diagnostics reporting.
func (l *Limiter) Tokens() float64 {
	return l.inner.TokensAt(time.Now())
}
