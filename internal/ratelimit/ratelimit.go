package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket that refills at rate tokens per second up to burst
type Limiter struct {
	mu         sync.Mutex
	rate       float64
	burst      float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// New creates a limiter allowing rps requests per second.
// The bucket starts full with a burst of max(rps, 1) tokens.
func New(rps float64) *Limiter {
	if rps <= 0 {
		rps = 1.0
	}
	burst := rps
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		rate:  rps,
		burst: burst,
		now:   time.Now,
	}
	l.tokens = burst
	l.lastRefill = l.now()
	return l
}

// Allow takes a token if one is available
func (l *Limiter) Allow() bool {
	_, ok := l.reserve()
	return ok
}

// Wait blocks until a token is available or ctx is done
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		delay, ok := l.reserve()
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve takes a token, or reports how long until the next one.
func (l *Limiter) reserve() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.tokens += now.Sub(l.lastRefill).Seconds() * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.lastRefill = now

	if l.tokens >= 1.0 {
		l.tokens -= 1.0
		return 0, true
	}

	missing := 1.0 - l.tokens
	return time.Duration(missing / l.rate * float64(time.Second)), false
}
