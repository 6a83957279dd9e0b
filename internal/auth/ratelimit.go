package auth

import (
	"sync"
	"time"
)

// RateLimiter is an in-memory sliding-window limiter keyed by an arbitrary
// string (the token authority keys it on the presented token's prefix).
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
}

// NewRateLimiter allows max attempts per window for each key.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. Attempts outside the window are pruned first.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	kept := rl.attempts[key][:0]
	for _, t := range rl.attempts[key] {
		if now.Sub(t) < rl.window {
			kept = append(kept, t)
		}
	}
	if len(kept) >= rl.max {
		rl.attempts[key] = kept
		return false
	}
	rl.attempts[key] = append(kept, now)
	return true
}

// RetryAfter returns how long until the oldest recorded attempt for key
// leaves the window. Zero when the key has no attempts.
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	attempts := rl.attempts[key]
	if len(attempts) == 0 {
		return 0
	}
	oldest := attempts[0]
	for _, t := range attempts[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}
	remaining := rl.window - time.Since(oldest)
	if remaining < time.Second {
		remaining = time.Second
	}
	return remaining
}

// Cleanup drops keys whose every attempt is outside the window. The server
// runs this periodically so abandoned prefixes don't accumulate.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, attempts := range rl.attempts {
		live := false
		for _, t := range attempts {
			if now.Sub(t) < rl.window {
				live = true
				break
			}
		}
		if !live {
			delete(rl.attempts, key)
		}
	}
}
