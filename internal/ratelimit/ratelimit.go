// Package ratelimit paces outbound conversion requests with a token bucket.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maximbilan/esmify/internal/config"
)

// Limiter is a token bucket with a minimum spacing between requests
type Limiter struct {
	mu          sync.Mutex
	tokens      int
	maxTokens   int
	refillRate  time.Duration // time to earn one token
	lastRefill  time.Time
	minInterval time.Duration
	lastRequest time.Time
}

// New creates a limiter allowing maxRequests per perDuration, never closer than minInterval
func New(maxRequests int, perDuration time.Duration, minInterval time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 10
	}
	if perDuration <= 0 {
		perDuration = time.Minute
	}
	if minInterval <= 0 {
		minInterval = 100 * time.Millisecond
	}

	refillRate := perDuration / time.Duration(maxRequests)
	if refillRate <= 0 {
		refillRate = time.Nanosecond
	}

	return &Limiter{
		tokens:      maxRequests,
		maxTokens:   maxRequests,
		refillRate:  refillRate,
		lastRefill:  time.Now(),
		minInterval: minInterval,
	}
}

// FromConfig builds a limiter from config, or returns nil when pacing is disabled
func FromConfig(cfg *config.Config) *Limiter {
	if cfg == nil || !cfg.RateLimitEnabled {
		return nil
	}
	return New(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindow)*time.Second, 100*time.Millisecond)
}

// Wait blocks until a request may be sent or ctx is done.
// A nil limiter never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		now := time.Now()
		l.refill(now)

		var wait time.Duration
		if !l.lastRequest.IsZero() {
			if since := now.Sub(l.lastRequest); since < l.minInterval {
				wait = l.minInterval - since
			}
		}
		if wait == 0 && l.tokens <= 0 {
			wait = l.lastRefill.Add(l.refillRate).Sub(now)
			if wait <= 0 {
				wait = max(l.refillRate, time.Millisecond)
			}
		}

		if wait == 0 {
			l.tokens--
			l.lastRequest = now
			return nil
		}

		l.mu.Unlock()
		err := sleep(ctx, wait)
		l.mu.Lock()
		if err != nil {
			return fmt.Errorf("rate limit wait cancelled: %w", err)
		}
	}
}

// Available reports the tokens currently in the bucket
func (l *Limiter) Available() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill(time.Now())
	return l.tokens
}

func (l *Limiter) refill(now time.Time) {
	if l.refillRate <= 0 {
		return
	}
	elapsed := now.Sub(l.lastRefill)
	if earned := int(elapsed / l.refillRate); earned > 0 {
		l.tokens = min(l.maxTokens, l.tokens+earned)
		l.lastRefill = l.lastRefill.Add(time.Duration(earned) * l.refillRate)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
