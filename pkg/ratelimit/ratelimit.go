// Package ratelimit spaces out page navigations and retries transient
// failures.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Limiter enforces a minimum delay between consecutive operations, padded by
// a random jitter. It is safe for concurrent use; waiters are served one at
// a time.
type Limiter struct {
	mu   sync.Mutex
	min  time.Duration
	max  time.Duration
	last time.Time

	now    func() time.Time
	jitter func(time.Duration) time.Duration
}

// NewLimiter creates a limiter that keeps at least minDelay between
// operations and adds up to (maxDelay - minDelay) of random jitter. A zero
// minDelay disables waiting.
func NewLimiter(minDelay, maxDelay time.Duration) *Limiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Limiter{
		min: minDelay,
		max: maxDelay,
		now: time.Now,
		jitter: func(span time.Duration) time.Duration {
			if span <= 0 {
				return 0
			}
			return time.Duration(rand.Int64N(int64(span)))
		},
	}
}

// Wait blocks until min has elapsed since the previous operation, plus
// jitter, or until ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.min > 0 && !l.last.IsZero() {
		elapsed := l.now().Sub(l.last)
		if elapsed < l.min {
			d := l.min - elapsed + l.jitter(l.max-l.min)
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.last = l.now()
	return nil
}

// RetryPolicy configures Retry.
type RetryPolicy struct {
	// Attempts is the total number of tries, at least one.
	Attempts int
	// Delay is multiplied by the attempt number between tries.
	Delay  time.Duration
	Logger *slog.Logger
}

// DefaultRetry is three attempts with a one second linear backoff.
var DefaultRetry = RetryPolicy{Attempts: 3, Delay: time.Second}

// Retry calls op until it succeeds, ctx is done or the attempts run out. It
// returns the last error.
func Retry(ctx context.Context, p RetryPolicy, op func(context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry canceled: %w", err)
		}
		if attempt == p.Attempts {
			break
		}

		logger.Warn("attempt failed, retrying", "attempt", attempt, "of", p.Attempts, "err", err)
		timer := time.NewTimer(p.Delay * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry canceled: %w", err)
		case <-timer.C:
		}
	}
	return fmt.Errorf("after %d attempts: %w", p.Attempts, err)
}
