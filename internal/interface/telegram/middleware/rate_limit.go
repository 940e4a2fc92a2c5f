// Package middleware contains wrappers applied to every bot command.
package middleware

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER MIDDLEWARE
// Per-user token bucket for commands. Result messages are never limited,
// only the commands that make the bot answer.
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained number of commands per user.
	RequestsPerMinute int

	// BurstSize is how many commands a user can send at once.
	BurstSize int

	// IdleTTL is how long an unused bucket is kept.
	IdleTTL time.Duration

	// WhitelistedUsers are exempt from limiting (e.g. admins).
	WhitelistedUsers map[int64]bool

	// Now overrides the clock; used by tests.
	Now func() time.Time
}

// DefaultRateLimitConfig returns sensible defaults for rate limiting.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 20,
		BurstSize:         5,
		IdleTTL:           10 * time.Minute,
	}
}

// RateLimiter implements per-user rate limiting.
type RateLimiter struct {
	config RateLimitConfig

	mu          sync.Mutex
	buckets     map[int64]*bucket
	lastCleanup time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 20
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 5
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RateLimiter{config: config, buckets: make(map[int64]*bucket)}
}

// RateLimitResult represents the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Message returns the text shown to a limited user.
func (r RateLimitResult) Message() string {
	return fmt.Sprintf("⏳ Lugn i stormen! Försök igen om %d sekunder.", int(r.RetryAfter.Seconds())+1)
}

// Check consumes one token for telegramID.
func (rl *RateLimiter) Check(telegramID int64) RateLimitResult {
	if rl.config.WhitelistedUsers[telegramID] {
		return RateLimitResult{Allowed: true}
	}

	now := rl.config.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanup(now)

	b, ok := rl.buckets[telegramID]
	if !ok {
		every := time.Minute / time.Duration(rl.config.RequestsPerMinute)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), rl.config.BurstSize)}
		rl.buckets[telegramID] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return RateLimitResult{Allowed: false, RetryAfter: delay}
	}
	return RateLimitResult{Allowed: true}
}

// cleanup drops idle buckets at most once per IdleTTL. Caller holds mu.
func (rl *RateLimiter) cleanup(now time.Time) {
	if now.Sub(rl.lastCleanup) < rl.config.IdleTTL {
		return
	}
	rl.lastCleanup = now
	for id, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.config.IdleTTL {
			delete(rl.buckets, id)
		}
	}
}

// Size returns the number of tracked users.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
