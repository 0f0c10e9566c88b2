// Package utils provides utility functions used throughout the application.
package utils

import (
	"context"
	"sync"
	"time"
)

// RateLimiter provides a simple in-memory rate limiting functionality.
type RateLimiter struct {
	// requests maps keys to the number of requests made
	requests map[string][]time.Time

	// window defines the time period for limiting
	window time.Duration

	// limit is the maximum number of requests allowed in the window
	limit int

	// mu synchronizes access to the requests map
	mu sync.RWMutex
}

// NewRateLimiter creates a new rate limiter with the specified window and limit.
func NewRateLimiter(window time.Duration, limit int) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		window:   window,
		limit:    limit,
		mu:       sync.RWMutex{},
	}
}

// Allow checks if a request with the given key is allowed.
// It returns true if the request is allowed, and false otherwise.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	// Create a new entry if the key doesn't exist
	if _, exists := rl.requests[key]; !exists {
		rl.requests[key] = []time.Time{now}
		return true
	}

	// Remove requests outside the window
	cutoff := now.Add(-rl.window)
	var validRequests []time.Time

	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			validRequests = append(validRequests, t)
		}
	}

	// Update valid requests
	rl.requests[key] = validRequests

	// Check if we're over the limit
	if len(validRequests) >= rl.limit {
		return false
	}

	// Record this request
	rl.requests[key] = append(rl.requests[key], now)
	return true
}

// Forget drops all recorded requests for the given key.
func (rl *RateLimiter) Forget(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.requests, key)
}

// CleanupLoop periodically cleans up expired entries.
// It should be started in a goroutine.
func (rl *RateLimiter) CleanupLoop(ctx context.Context, cleanupInterval time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
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

// cleanup removes expired entries from the requests map.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	for key, times := range rl.requests {
		var validTimes []time.Time

		for _, t := range times {
			if t.After(cutoff) {
				validTimes = append(validTimes, t)
			}
		}

		if len(validTimes) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = validTimes
		}
	}
}
