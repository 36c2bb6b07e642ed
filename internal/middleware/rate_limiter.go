package middleware

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a simple in-memory fixed-window limiter keyed by
// participant id
type RateLimiter struct {
	userLimits map[int64]*userLimit
	mu         sync.Mutex

	userMaxRequests int
	window          time.Duration
	now             func() time.Time
}

type userLimit struct {
	requests  int
	resetTime time.Time
	warned    bool
}

// NewRateLimiter creates a new rate limiter. A non-positive max disables
// limiting.
func NewRateLimiter(userMaxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		userLimits:      make(map[int64]*userLimit),
		userMaxRequests: userMaxRequests,
		window:          window,
		now:             time.Now,
	}
}

// Allow records one event for userID. It returns allowed=false once the
// window's budget is spent; firstDenial is true only for the first rejected
// event of a window so callers can warn once.
func (rl *RateLimiter) Allow(userID int64) (allowed bool, firstDenial bool) {
	if rl.userMaxRequests <= 0 {
		return true, false
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	limit, exists := rl.userLimits[userID]
	if !exists || now.After(limit.resetTime) {
		rl.userLimits[userID] = &userLimit{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true, false
	}

	if limit.requests >= rl.userMaxRequests {
		first := !limit.warned
		limit.warned = true
		return false, first
	}

	limit.requests++
	return true, false
}

// GetUserRemaining returns remaining requests for user
func (rl *RateLimiter) GetUserRemaining(userID int64) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, exists := rl.userLimits[userID]
	if !exists || rl.now().After(limit.resetTime) {
		return rl.userMaxRequests
	}

	remaining := rl.userMaxRequests - limit.requests
	if remaining < 0 {
		return 0
	}
	return remaining
}

// StartCleanup removes expired entries every interval until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for userID, limit := range rl.userLimits {
		if now.After(limit.resetTime) {
			delete(rl.userLimits, userID)
		}
	}
}

// Reset clears all rate limits
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.userLimits = make(map[int64]*userLimit)
}
