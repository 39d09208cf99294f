// Package ratelimit implements the runner's monotonic token-bucket rate
// limiter (spec §4.2), grounded on the original adapter's
// rate_limiter.py: capacity 1, refill rate rpm/60 tokens/sec, with
// injectable clock/sleep for deterministic tests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a monotonic token bucket of capacity 1. A nil *Limiter is a
// valid no-op limiter (spec §4.2: "If rpm is unset, the limiter is nil").
type Limiter struct {
	ratePerSecond float64
	clock         func() time.Time
	sleep         func(time.Duration)

	mu        sync.Mutex
	tokens    float64
	updatedAt time.Time
}

const capacity = 1.0

// New creates a Limiter for the given requests-per-minute rate. rpm must
// be > 0.
func New(rpm int) *Limiter {
	return NewWithClock(rpm, time.Now, time.Sleep)
}

// NewWithClock creates a Limiter with an injected clock/sleep, used by
// tests to make refill deterministic (spec §4.2).
func NewWithClock(rpm int, clock func() time.Time, sleep func(time.Duration)) *Limiter {
	if rpm <= 0 {
		panic("ratelimit: rpm must be greater than zero")
	}
	return &Limiter{
		ratePerSecond: float64(rpm) / 60.0,
		clock:         clock,
		sleep:         sleep,
		tokens:        capacity,
		updatedAt:     clock(),
	}
}

func (l *Limiter) refill(now time.Time) {
	elapsed := now.Sub(l.updatedAt).Seconds()
	if elapsed > 0 {
		l.tokens = min(capacity, l.tokens+elapsed*l.ratePerSecond)
		l.updatedAt = now
	}
}

// reserve attempts to take one token, returning the wait duration needed
// before a token becomes available (0 if one was taken immediately). No
// suspension happens while the internal lock is held (spec §5).
func (l *Limiter) reserve(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill(now)
	if l.tokens >= 1.0 {
		l.tokens -= 1.0
		return 0
	}
	deficit := 1.0 - l.tokens
	wait := deficit / l.ratePerSecond
	l.tokens = 0
	l.updatedAt = now
	return time.Duration(wait * float64(time.Second))
}

// Acquire blocks until a token is available. A nil receiver is a no-op.
func (l *Limiter) Acquire() {
	if l == nil {
		return
	}
	for {
		wait := l.reserve(l.clock())
		if wait <= 0 {
			return
		}
		l.sleep(wait)
	}
}

// AcquireContext behaves like Acquire but returns early with ctx.Err() if
// the context is cancelled while waiting for a refill.
func (l *Limiter) AcquireContext(ctx context.Context) error {
	if l == nil {
		return nil
	}
	for {
		wait := l.reserve(l.clock())
		if wait <= 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
