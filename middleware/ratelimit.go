package middleware

import (
	"sync"
	"time"

	"main/utils"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a per-process request counter keyed by client address over a
// rolling window. It guards the credential and OTP endpoints against
// stuffing and spam; counters reset when the window expires.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string]int
	lastTry  map[string]time.Time
	window   time.Duration
	maxTries int
}

func NewRateLimiter(window time.Duration, maxTries int) *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string]int),
		lastTry:  make(map[string]time.Time),
		window:   window,
		maxTries: maxTries,
	}
}

// Allow reports whether a request from the given identifier is within limits.
func (rl *RateLimiter) Allow(identifier string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	lastTry, exists := rl.lastTry[identifier]

	if !exists || now.Sub(lastTry) > rl.window {
		rl.attempts[identifier] = 1
		rl.lastTry[identifier] = now
		return true
	}

	if rl.attempts[identifier] >= rl.maxTries {
		return false
	}

	rl.attempts[identifier]++
	rl.lastTry[identifier] = now
	return true
}

// CleanupStaleEntries drops identifiers whose window has passed.
func (rl *RateLimiter) CleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for id, lastTry := range rl.lastTry {
		if now.Sub(lastTry) > rl.window {
			delete(rl.attempts, id)
			delete(rl.lastTry, id)
		}
	}
}

// RateLimitMiddleware applies the limiter keyed by client IP.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			utils.TrackError("http", "rate_limited")
			utils.TooManyRequests(c, "too many requests, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
