package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterEnforcesLimit(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 3)

	for range 3 {
		assert.True(t, rl.Allow("c1"))
	}
	assert.False(t, rl.Allow("c1"))

	// Other keys keep their own budget.
	assert.True(t, rl.Allow("c2"))
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(30*time.Millisecond, 1)

	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"))

	time.Sleep(40 * time.Millisecond)
	assert.True(t, rl.Allow("c1"))
}

func TestRateLimiterForget(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)

	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"))

	rl.Forget("c1")
	assert.True(t, rl.Allow("c1"))
}

func TestRateLimiterCleanupDropsExpiredKeys(t *testing.T) {
	rl := NewRateLimiter(10*time.Millisecond, 5)

	rl.Allow("c1")
	time.Sleep(20 * time.Millisecond)
	rl.cleanup()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Empty(t, rl.requests)
}
