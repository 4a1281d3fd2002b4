package dashboard

import (
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	limit := 5
	period := time.Second
	rl := NewRateLimiter(limit, period)

	userID := "user123"

	// Test that we can make requests up to the limit
	for i := 0; i < limit; i++ {
		if !rl.Allow(userID) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// Test that the next request is denied
	if rl.Allow(userID) {
		t.Error("Request should be denied after exceeding limit")
	}
}

func TestRateLimiter_Allow_DifferentUsers(t *testing.T) {
	limit := 3
	period := time.Second
	rl := NewRateLimiter(limit, period)

	// Exhaust limit for user1
	for i := 0; i < limit; i++ {
		if !rl.Allow("user1") {
			t.Errorf("Request %d for user1 should be allowed", i+1)
		}
	}

	// user1 should be denied
	if rl.Allow("user1") {
		t.Error("user1 should be denied after exceeding limit")
	}

	// user2 should still be allowed
	if !rl.Allow("user2") {
		t.Error("user2 should be allowed")
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	userID := "user123"

	if !rl.Allow(userID) {
		t.Error("First request should be allowed")
	}
	if rl.Allow(userID) {
		t.Error("Second request should be denied")
	}

	rl.Reset(userID)

	if !rl.Allow(userID) {
		t.Error("Request after reset should be allowed")
	}
}

func TestRateLimiter_Allow_TokenRefill(t *testing.T) {
	limit := 2
	period := 100 * time.Millisecond // Short period for testing
	rl := NewRateLimiter(limit, period)

	userID := "user123"

	// Exhaust the limit
	for i := 0; i < limit; i++ {
		if !rl.Allow(userID) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// Should be denied
	if rl.Allow(userID) {
		t.Error("Request should be denied after exhausting tokens")
	}

	// Wait for a full refill period
	time.Sleep(period + 20*time.Millisecond)

	if !rl.Allow(userID) {
		t.Error("Request should be allowed after refill")
	}
}
