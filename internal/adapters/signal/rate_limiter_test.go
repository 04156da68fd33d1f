package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	rl := NewRoomRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("u1"), "attempt %d", i)
	}
	assert.False(t, rl.Allow("u1"))

	// Budgets are per user.
	assert.True(t, rl.Allow("u2"))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRoomRateLimiter(2, 20*time.Millisecond)
	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))

	time.Sleep(25 * time.Millisecond)
	assert.True(t, rl.Allow("u1"))
}
