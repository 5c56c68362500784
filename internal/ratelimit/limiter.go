package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 2 * time.Minute
)

// Limiter paces requests to one upstream data source and slows down
// further after the source reports throttling
type Limiter struct {
	limiter   *rate.Limiter
	name      string
	mu        sync.Mutex
	backoff   time.Duration
	throttled bool
}

// NewLimiter creates a limiter allowing perMinute requests per minute.
// Non-positive rates disable pacing.
func NewLimiter(name string, perMinute int) *Limiter {
	if perMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1), name: name, backoff: initialBackoff}
	}

	// Burst of up to 5 requests or a tenth of the per-minute budget
	burst := min(max(perMinute/10, 1), 5)

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		name:    name,
		backoff: initialBackoff,
	}
}

// Wait blocks until a request may be sent or ctx is done.
// After SignalRateLimited the current backoff is served first.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	pause := time.Duration(0)
	if l.throttled {
		pause = l.backoff
	}
	l.mu.Unlock()

	if pause > 0 {
		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may be sent now
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SignalRateLimited records a throttling response (HTTP 429 or an API
// notice) and doubles the backoff up to two minutes
func (l *Limiter) SignalRateLimited() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.throttled {
		l.backoff = min(l.backoff*2, maxBackoff)
	}
	l.throttled = true
}

// ResetBackoff clears throttling after a successful response
func (l *Limiter) ResetBackoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.backoff = initialBackoff
	l.throttled = false
}

// Backoff returns the pause Wait will add while throttled
func (l *Limiter) Backoff() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backoff
}

// Throttled reports whether the last response signalled rate limiting
func (l *Limiter) Throttled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.throttled
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}
